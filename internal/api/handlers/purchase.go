package handlers

import (
	"net/http"
	"time"

	"github.com/dom/coursemarket/internal/api/middleware"
	"github.com/dom/coursemarket/internal/api/response"
	"github.com/dom/coursemarket/internal/domain"
	"github.com/dom/coursemarket/internal/service"
)

type PurchaseHandler struct {
	purchaseService *service.PurchaseService
}

func NewPurchaseHandler(purchaseService *service.PurchaseService) *PurchaseHandler {
	return &PurchaseHandler{purchaseService: purchaseService}
}

type PurchaseResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	CourseID  string    `json:"courseId"`
	Status    string    `json:"status"`
	Amount    int64     `json:"amount"`
	Currency  string    `json:"currency"`
	CreatedAt time.Time `json:"createdAt"`
}

func toPurchaseResponse(p *domain.Purchase) PurchaseResponse {
	return PurchaseResponse{
		ID:        p.ID.String(),
		UserID:    p.UserID.String(),
		CourseID:  p.CourseID.String(),
		Status:    string(p.Status),
		Amount:    p.Amount,
		Currency:  p.Currency,
		CreatedAt: p.CreatedAt,
	}
}

func (h *PurchaseHandler) Buy(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetPrincipalID(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "No token provided")
		return
	}

	courseID, ok := parseCourseID(w, r)
	if !ok {
		return
	}

	result, err := h.purchaseService.Purchase(r.Context(), userID, courseID)
	if err != nil {
		writeServiceError(w, r, "course.buy", err)
		return
	}

	response.JSON(w, http.StatusCreated, map[string]interface{}{
		"message":      "Course purchased successfully",
		"course":       toCourseResponse(result.Course),
		"purchase":     toPurchaseResponse(result.Purchase),
		"clientSecret": result.ClientSecret,
	})
}

func (h *PurchaseHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetPrincipalID(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "No token provided")
		return
	}

	list, err := h.purchaseService.ListForUser(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, "user.purchases", err)
		return
	}

	purchased := make([]PurchaseResponse, 0, len(list.Purchases))
	for _, p := range list.Purchases {
		purchased = append(purchased, toPurchaseResponse(p))
	}

	response.JSON(w, http.StatusOK, map[string]interface{}{
		"purchased":  purchased,
		"courseData": toCourseResponses(list.Courses),
	})
}
