package service

import (
	"github.com/dom/coursemarket/internal/config"
	"github.com/dom/coursemarket/internal/metrics"
	"github.com/dom/coursemarket/internal/repository"
)

// Dependencies are the collaborators living outside the database.
type Dependencies struct {
	Assets    AssetHost
	Payments  PaymentProcessor
	Publisher CatalogPublisher
	Metrics   metrics.Recorder
}

type Services struct {
	Tokens      *TokenService
	Credentials *CredentialService
	Courses     *CourseService
	Purchases   *PurchaseService
}

func NewServices(repos *repository.Repositories, cfg *config.Config, deps Dependencies) *Services {
	tokens := NewTokenService(cfg.JWTAdminSecret, cfg.JWTUserSecret, cfg.TokenTTL())
	return &Services{
		Tokens:      tokens,
		Credentials: NewCredentialService(repos, tokens, cfg.BcryptCost, deps.Metrics),
		Courses:     NewCourseService(repos.Course, deps.Assets, deps.Publisher, deps.Metrics, cfg.ExternalCallTimeout),
		Purchases:   NewPurchaseService(repos.Course, repos.Purchase, deps.Payments, deps.Metrics, cfg.PaymentCurrency, cfg.ExternalCallTimeout, cfg.PendingPurchaseTTL),
	}
}
