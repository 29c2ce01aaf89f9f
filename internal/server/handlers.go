package server

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"notification-service/internal/config"
	"notification-service/internal/dtos"
	internalErrors "notification-service/internal/errors"
	"notification-service/internal/services"
	"strconv"
	"time"

	"github.com/goccy/go-json"
)

func (s *HttpServer) createNotification(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		slog.Error("cannot read request body", "error", err)
		http.Error(w, "Cannot read request body", http.StatusUnprocessableEntity)
		return
	}

	defer r.Body.Close()

	var request dtos.NotificationRequest
	err = json.Unmarshal(body, &request)
	if err != nil {
		slog.Error("cannot unmarshal request body", "error", err)
		http.Error(w, "Cannot unmarshal request body", http.StatusUnprocessableEntity)
		return
	}

	outcome, err := s.ns.Handle(r.Context(), request.ToNotification())
	if err != nil {
		if services.IsClientError(err) {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		slog.Error("error while handling notification", "notificationId", request.NotificationId, "error", err)
		http.Error(w, "Error while handling notification", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, dtos.NotificationResponse{
		Status:   string(outcome.Status),
		OrderId:  outcome.OrderID,
		Strategy: string(outcome.Strategy),
		Reason:   outcome.Reason,
	})
}

func (s *HttpServer) notificationsSummary(w http.ResponseWriter, r *http.Request) {
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")

	filters := dtos.NotificationSummaryFilters{}

	if from != "" {
		fromDate, err := time.Parse(config.DateTimeFormat, from)
		if err == nil {
			filters.From = fromDate
		} else {
			slog.Error("failed to parse from date", "date", from, "error", err)
		}
	}

	if to != "" {
		toDate, err := time.Parse(config.DateTimeFormat, to)
		if err == nil {
			filters.To = toDate
		} else {
			slog.Error("failed to parse to date", "date", to, "error", err)
		}
	}

	summary, err := s.ns.GetSummary(r.Context(), filters)
	if err != nil {
		slog.Error("error while fetching notifications summary", "error", err)
		http.Error(w, "Error while fetching notifications summary", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

func (s *HttpServer) orderCorrelation(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid order id", http.StatusBadRequest)
		return
	}

	order, record, err := s.ns.GetCorrelation(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, internalErrors.ErrOrderNotFound) {
			http.Error(w, "Order not found", http.StatusNotFound)
			return
		}
		slog.Error("error while loading correlation record", "orderId", orderID, "error", err)
		http.Error(w, "Error while loading correlation record", http.StatusInternalServerError)
		return
	}

	refundIDs := record.RefundIDs
	if refundIDs == nil {
		refundIDs = []string{}
	}
	writeJSON(w, http.StatusOK, dtos.CorrelationResponse{
		OrderId:          order.ID,
		Version:          record.Version.String(),
		GatewayOrderId:   record.GatewayOrderID,
		AuthorizationId:  record.AuthorizationID,
		CaptureId:        record.CaptureID,
		RefundIds:        refundIDs,
		SettledRefundIds: record.SettledRefundIDs,
	})
}

func (s *HttpServer) healthCheck(w http.ResponseWriter, r *http.Request) {
	err := writeJSON(w, http.StatusOK, struct {
		Status string `json:"status"`
	}{
		Status: "all good",
	})
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func (s *HttpServer) purgeNotifications(w http.ResponseWriter, r *http.Request) {
	err := s.ns.Clear(r.Context())
	if err != nil {
		http.Error(w, "Error when trying to purge notifications: "+err.Error(), http.StatusInternalServerError)
	}
}
