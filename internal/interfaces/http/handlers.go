package http

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/billbookhq/billbook/internal/application/service"
	"github.com/billbookhq/billbook/internal/domain/entity"
	"github.com/billbookhq/billbook/internal/domain/workflow"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	services Services
	logger   Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(services Services, logger Logger) *Handlers {
	return &Handlers{
		services: services,
		logger:   logger,
	}
}

// BillRequest is the JSON payload for creating or updating a bill
type BillRequest struct {
	EntryDate   string          `json:"entryDate"`
	BillDate    string          `json:"billDate"`
	PersonName  string          `json:"personName"`
	Amount      decimal.Decimal `json:"amount"`
	Type        string          `json:"type"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	UserID      string          `json:"userId"`
	IsDraft     bool            `json:"isDraft"`
	BillPhoto   string          `json:"billPhoto"`
}

// DirectPaymentRequest is the JSON payload for an admin direct payment
type DirectPaymentRequest struct {
	EntryDate   string          `json:"entryDate"`
	BillDate    string          `json:"billDate"`
	VendorName  string          `json:"vendorName"`
	Amount      decimal.Decimal `json:"amount"`
	Type        string          `json:"type"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	AdminID     string          `json:"adminId"`
	AdminName   string          `json:"adminName"`
	BillPhoto   string          `json:"billPhoto"`
}

// StatusRequest is the JSON payload for a status transition
type StatusRequest struct {
	Status    string `json:"status"`
	AdminID   string `json:"adminId"`
	AdminName string `json:"adminName"`
	Remarks   string `json:"remarks"`
}

// DuplicateCheckRequest is the JSON payload for the duplicate probe
type DuplicateCheckRequest struct {
	BillDate    string          `json:"billDate"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	PersonName  string          `json:"personName"`
}

// EmailRequest is the JSON payload for sending a notification email
type EmailRequest struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// CreateBill handles POST /api/upload-bill-json
func (h *Handlers) CreateBill(c *gin.Context) {
	var req BillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBadRequest(c, "invalid request body")
		return
	}

	entryDate, err := parseDate(req.EntryDate)
	if err != nil {
		h.respondBadRequest(c, "invalid entryDate")
		return
	}
	billDate, err := parseDate(req.BillDate)
	if err != nil {
		h.respondBadRequest(c, "invalid billDate")
		return
	}

	bill, err := h.services.Bills.Create(c.Request.Context(), service.CreateBillInput{
		EntryDate:   entryDate,
		BillDate:    billDate,
		PersonName:  req.PersonName,
		Amount:      req.Amount,
		Type:        entity.BillType(req.Type),
		Description: req.Description,
		Category:    req.Category,
		UserID:      req.UserID,
		IsDraft:     req.IsDraft,
		PhotoBase64: req.BillPhoto,
		IPDevice:    clientDevice(c),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "bill": bill})
}

// CreateDirectPayment handles POST /api/direct-payment-json
func (h *Handlers) CreateDirectPayment(c *gin.Context) {
	var req DirectPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBadRequest(c, "invalid request body")
		return
	}

	entryDate, err := parseDate(req.EntryDate)
	if err != nil {
		h.respondBadRequest(c, "invalid entryDate")
		return
	}
	billDate, err := parseDate(req.BillDate)
	if err != nil {
		h.respondBadRequest(c, "invalid billDate")
		return
	}

	bill, err := h.services.Bills.CreateDirectPayment(c.Request.Context(), service.DirectPaymentInput{
		EntryDate:   entryDate,
		BillDate:    billDate,
		VendorName:  req.VendorName,
		Amount:      req.Amount,
		Type:        entity.BillType(req.Type),
		Description: req.Description,
		Category:    req.Category,
		AdminID:     req.AdminID,
		AdminName:   req.AdminName,
		PhotoBase64: req.BillPhoto,
		IPDevice:    clientDevice(c),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "bill": bill})
}

// UpdateBill handles PATCH /api/update-bill-json/:billId
func (h *Handlers) UpdateBill(c *gin.Context) {
	var req BillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBadRequest(c, "invalid request body")
		return
	}

	entryDate, err := parseDate(req.EntryDate)
	if err != nil {
		h.respondBadRequest(c, "invalid entryDate")
		return
	}
	billDate, err := parseDate(req.BillDate)
	if err != nil {
		h.respondBadRequest(c, "invalid billDate")
		return
	}

	bill, err := h.services.Bills.Update(c.Request.Context(), c.Param("billId"), service.UpdateBillInput{
		EntryDate:   entryDate,
		BillDate:    billDate,
		PersonName:  req.PersonName,
		Amount:      req.Amount,
		Type:        entity.BillType(req.Type),
		Description: req.Description,
		Category:    req.Category,
		IsDraft:     req.IsDraft,
		PhotoBase64: req.BillPhoto,
		IPDevice:    clientDevice(c),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "bill": bill})
}

// UpdateBillStatus handles PATCH /api/update-bill-status/:billId
func (h *Handlers) UpdateBillStatus(c *gin.Context) {
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBadRequest(c, "invalid request body")
		return
	}

	bill, err := h.services.Bills.Transition(c.Request.Context(), c.Param("billId"), service.TransitionInput{
		Target:    entity.Status(req.Status),
		AdminID:   req.AdminID,
		AdminName: req.AdminName,
		Remarks:   req.Remarks,
		IPDevice:  clientDevice(c),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "bill": bill})
}

// DeleteBill handles DELETE /api/delete-bill/:billId
func (h *Handlers) DeleteBill(c *gin.Context) {
	actor := c.Query("actor")

	if err := h.services.Bills.Delete(c.Request.Context(), c.Param("billId"), actor, clientDevice(c)); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "bill deleted"})
}

// CheckDuplicate handles POST /api/check-duplicate
func (h *Handlers) CheckDuplicate(c *gin.Context) {
	var req DuplicateCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBadRequest(c, "invalid request body")
		return
	}

	billDate, err := parseDate(req.BillDate)
	if err != nil {
		h.respondBadRequest(c, "invalid billDate")
		return
	}

	isDuplicate := h.services.Bills.CheckDuplicate(c.Request.Context(),
		billDate, req.Amount, req.Description, req.PersonName)

	c.JSON(http.StatusOK, gin.H{"success": true, "isDuplicate": isDuplicate})
}

// ListAllBills handles GET /api/all-bills
func (h *Handlers) ListAllBills(c *gin.Context) {
	bills, err := h.services.Bills.ListAll(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "bills": bills})
}

// ListAllBillsWithStats handles GET /api/all-bills-with-stats
func (h *Handlers) ListAllBillsWithStats(c *gin.Context) {
	bills, err := h.services.Bills.ListAll(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	stats, err := h.services.Reports.Statistics(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "bills": bills, "stats": stats})
}

// ListUserBills handles GET /api/user-bills/:userId
func (h *Handlers) ListUserBills(c *gin.Context) {
	bills, err := h.services.Bills.ListByUser(c.Request.Context(), c.Param("userId"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "bills": bills})
}

// ListUserReturnedBills handles GET /api/user-returned-bills/:userId
func (h *Handlers) ListUserReturnedBills(c *gin.Context) {
	bills, err := h.services.Bills.ListReturnedByUser(c.Request.Context(), c.Param("userId"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "bills": bills})
}

// ListPendingDirectPayments handles GET /api/pending-direct-payments/:adminId
func (h *Handlers) ListPendingDirectPayments(c *gin.Context) {
	bills, err := h.services.Bills.ListPendingDirectPayments(c.Request.Context(), c.Param("adminId"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "bills": bills})
}

// ListUserSubmittedBills handles GET /api/user-submitted-bills
func (h *Handlers) ListUserSubmittedBills(c *gin.Context) {
	bills, err := h.services.Bills.ListUserSubmitted(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "bills": bills})
}

// GetLedger handles GET /api/ledger
func (h *Handlers) GetLedger(c *gin.Context) {
	rows, err := h.services.Ledger.Build(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "ledger": rows})
}

// ExportLedger handles GET /api/ledger/export
func (h *Handlers) ExportLedger(c *gin.Context) {
	content, err := h.services.Export.ExportXLSX(c.Request.Context(), c.Query("actor"), clientDevice(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	filename := fmt.Sprintf("ledger-%s.xlsx", time.Now().UTC().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", content)
}

// ListEventLogs handles GET /api/event-logs
func (h *Handlers) ListEventLogs(c *gin.Context) {
	events, err := h.services.Audit.List(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "events": events})
}

// ListUsers handles GET /api/users
func (h *Handlers) ListUsers(c *gin.Context) {
	users, err := h.services.Reports.UserSummaries(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "users": users})
}

// SendEmail handles POST /api/send-email
func (h *Handlers) SendEmail(c *gin.Context) {
	var req EmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBadRequest(c, "invalid request body")
		return
	}

	if err := h.services.Email.Send(c.Request.Context(), req.To, req.Subject, req.HTML); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "email sent"})
}

// respondError maps domain errors onto HTTP status codes
func (h *Handlers) respondError(c *gin.Context, err error) {
	var validationErr *entity.ValidationError

	switch {
	case errors.As(err, &validationErr),
		errors.Is(err, workflow.ErrInvalidTarget),
		errors.Is(err, workflow.ErrInvalidTransition),
		errors.Is(err, service.ErrSelfApproval),
		errors.Is(err, entity.ErrBillFinalized):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
	case errors.Is(err, entity.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "bill not found"})
	case errors.Is(err, entity.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"success": false, "error": "bill was modified concurrently, retry"})
	default:
		h.logger.Error("Request failed", "path", c.Request.URL.Path, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "internal server error"})
	}
}

func (h *Handlers) respondBadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": msg})
}

// clientDevice composes the ip/device string recorded in audit events
func clientDevice(c *gin.Context) string {
	ua := c.Request.UserAgent()
	if ua == "" {
		return c.ClientIP()
	}
	return c.ClientIP() + " | " + ua
}

// parseDate accepts RFC3339 timestamps or plain calendar dates.
// An empty string parses to the zero time.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
