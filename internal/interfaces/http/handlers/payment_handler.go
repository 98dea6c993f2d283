package handlers

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/microlearn/payments/internal/application/checkout"
	domainErrors "github.com/microlearn/payments/internal/domain/errors"
	"github.com/microlearn/payments/internal/domain/payment"
	"github.com/microlearn/payments/internal/infrastructure/observability"
	"github.com/microlearn/payments/internal/interfaces/http/dto"
	custommw "github.com/microlearn/payments/internal/middleware"
)

// PaymentHandler handles checkout and gateway callback HTTP requests.
type PaymentHandler struct {
	initiateUC  *checkout.InitiatePaymentUseCase
	successUC   *checkout.ProcessSuccessUseCase
	failUC      *checkout.FailPaymentUseCase
	paymentRepo payment.Repository
	frontendURL string
	metrics     *observability.Metrics
	logger      zerolog.Logger
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(
	initiateUC *checkout.InitiatePaymentUseCase,
	successUC *checkout.ProcessSuccessUseCase,
	failUC *checkout.FailPaymentUseCase,
	paymentRepo payment.Repository,
	frontendURL string,
	metrics *observability.Metrics,
	logger zerolog.Logger,
) *PaymentHandler {
	return &PaymentHandler{
		initiateUC:  initiateUC,
		successUC:   successUC,
		failUC:      failUC,
		paymentRepo: paymentRepo,
		frontendURL: frontendURL,
		metrics:     metrics,
		logger:      logger,
	}
}

// Initiate handles POST /api/v1/courses/payment/initiate
func (h *PaymentHandler) Initiate(w http.ResponseWriter, r *http.Request) {
	userID, ok := custommw.GetUserID(r.Context())
	if !ok {
		writeError(w, domainErrors.ErrUnauthorized)
		return
	}

	var req dto.InitiatePaymentRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	courseID, err := uuid.Parse(req.CourseID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "invalid course_id", Code: "invalid_id"})
		return
	}

	resp, err := h.initiateUC.Execute(r.Context(), userID, courseID)
	if err != nil {
		h.metrics.PaymentsInitiated.WithLabelValues("error").Inc()
		writeError(w, err)
		return
	}

	h.metrics.PaymentsInitiated.WithLabelValues("ok").Inc()
	writeJSON(w, http.StatusCreated, dto.InitiateResponse{
		PaymentURL: resp.PaymentURL,
		PaymentID:  resp.PaymentID,
		SessionID:  resp.SessionID,
	})
}

// Success handles POST /api/v1/courses/payment/success
//
// The gateway posts form data and expects a browser redirect back. The
// redirect is issued no matter how the inline validation went: the queued
// job finishes whatever the fast path could not.
func (h *PaymentHandler) Success(w http.ResponseWriter, r *http.Request) {
	h.metrics.CallbacksReceived.WithLabelValues("success").Inc()

	data := h.callbackData(r)
	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(attribute.String("payment.tran_id", data.TransactionID))

	result, err := h.successUC.Execute(r.Context(), data)
	if err != nil {
		h.logger.Error().Err(err).
			Str("tran_id", data.TransactionID).
			Msg("success callback could not be resolved")
		h.redirect(w, r, "/courses/payment/fail", nil)
		return
	}

	span.SetAttributes(attribute.String("payment.outcome", string(result.Outcome)))
	h.metrics.InlineValidations.WithLabelValues(string(result.Outcome)).Inc()
	h.redirect(w, r, "/courses/payment/success", url.Values{
		"courseId": []string{result.Payment.CourseID.String()},
	})
}

// Fail handles POST /api/v1/courses/payment/fail
func (h *PaymentHandler) Fail(w http.ResponseWriter, r *http.Request) {
	h.metrics.CallbacksReceived.WithLabelValues("fail").Inc()

	data := h.callbackData(r)
	if err := h.failUC.Execute(r.Context(), data.TransactionID, "failed"); err != nil {
		h.logger.Error().Err(err).
			Str("tran_id", data.TransactionID).
			Msg("fail callback could not be recorded")
	}
	h.redirect(w, r, "/courses/payment/fail", nil)
}

// Cancel handles POST /api/v1/courses/payment/cancel
func (h *PaymentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.metrics.CallbacksReceived.WithLabelValues("cancel").Inc()

	data := h.callbackData(r)
	if err := h.failUC.Execute(r.Context(), data.TransactionID, "cancelled"); err != nil {
		h.logger.Error().Err(err).
			Str("tran_id", data.TransactionID).
			Msg("cancel callback could not be recorded")
	}
	h.redirect(w, r, "/courses/payment/cancel", nil)
}

// IPN handles POST /api/v1/courses/payment/ipn
//
// Server-to-server notification; same resolution as Success but the gateway
// wants a plain 200 body, and a non-200 makes it redeliver.
func (h *PaymentHandler) IPN(w http.ResponseWriter, r *http.Request) {
	h.metrics.CallbacksReceived.WithLabelValues("ipn").Inc()

	data := h.callbackData(r)
	result, err := h.successUC.Execute(r.Context(), data)
	if err != nil {
		// Not-found and malformed ids will never resolve; answering 200
		// stops pointless redeliveries.
		var validationErr *domainErrors.ValidationError
		if errors.Is(err, domainErrors.ErrPaymentNotFound) || errors.As(err, &validationErr) {
			h.logger.Warn().Err(err).
				Str("tran_id", data.TransactionID).
				Msg("ipn for unknown payment")
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("IPN received"))
			return
		}
		writeError(w, err)
		return
	}

	h.metrics.InlineValidations.WithLabelValues(string(result.Outcome)).Inc()
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("IPN received"))
}

// History handles GET /api/v1/courses/payment/history
func (h *PaymentHandler) History(w http.ResponseWriter, r *http.Request) {
	userID, ok := custommw.GetUserID(r.Context())
	if !ok {
		writeError(w, domainErrors.ErrUnauthorized)
		return
	}

	payments, err := h.paymentRepo.ListByUser(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]*dto.PaymentResponse, 0, len(payments))
	for _, p := range payments {
		resp = append(resp, dto.FromPayment(p))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Purchased handles GET /api/v1/courses/{courseID}/purchased
func (h *PaymentHandler) Purchased(w http.ResponseWriter, r *http.Request) {
	userID, ok := custommw.GetUserID(r.Context())
	if !ok {
		writeError(w, domainErrors.ErrUnauthorized)
		return
	}

	courseID, err := uuid.Parse(chi.URLParam(r, "courseID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "invalid course id", Code: "invalid_id"})
		return
	}

	_, err = h.paymentRepo.GetCompleted(r.Context(), userID, courseID)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, dto.PurchasedResponse{CourseID: courseID, Purchased: true})
	case errors.Is(err, domainErrors.ErrPaymentNotFound):
		writeJSON(w, http.StatusOK, dto.PurchasedResponse{CourseID: courseID, Purchased: false})
	default:
		writeError(w, err)
	}
}

func (h *PaymentHandler) callbackData(r *http.Request) checkout.CallbackData {
	r.ParseForm()
	return checkout.CallbackData{
		TransactionID: r.PostFormValue("tran_id"),
		ValidationID:  r.PostFormValue("val_id"),
	}
}

func (h *PaymentHandler) redirect(w http.ResponseWriter, r *http.Request, path string, query url.Values) {
	target := h.frontendURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
