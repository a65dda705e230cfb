package transport

import (
	"net/http"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"campustrade/pkg/domain/model"
	"campustrade/pkg/domain/service"
	"campustrade/pkg/infrastructure/metrics"
)

type Services struct {
	Orders      service.OrderService
	Evaluations service.EvaluationService
	Returns     service.ReturnRequestService
	Credit      service.CreditLedger
}

type Handler struct {
	services Services
	logger   log.FieldLogger
}

// Router builds the HTTP API. /health and /metrics are served without
// authentication; everything under /api/v1 requires a bearer token. Fixed
// paths are registered ahead of the {id} routes they would otherwise match.
func Router(services Services, auth *Authenticator, health *HealthChecker, m *metrics.ServerMetrics, logger log.FieldLogger) http.Handler {
	h := &Handler{services: services, logger: logger}

	r := mux.NewRouter()
	r.Use(metricsMiddleware(m))
	r.Handle("/health", health).Methods(http.MethodGet).Name("health")
	r.Handle("/metrics", m.Handler()).Methods(http.MethodGet).Name("metrics")

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(auth.middleware)

	api.HandleFunc("/orders", h.createOrder).Methods(http.MethodPost).Name("create_order")
	api.HandleFunc("/orders", h.listOrders).Methods(http.MethodGet).Name("list_orders")
	api.HandleFunc("/orders/admin", h.listAllOrders).Methods(http.MethodGet).Name("list_all_orders")
	api.HandleFunc("/orders/{id}", h.getOrder).Methods(http.MethodGet).Name("get_order")
	api.HandleFunc("/orders/{id}/confirm", h.confirmOrder).Methods(http.MethodPost).Name("confirm_order")
	api.HandleFunc("/orders/{id}/reject", h.rejectOrder).Methods(http.MethodPost).Name("reject_order")
	api.HandleFunc("/orders/{id}/complete", h.completeOrder).Methods(http.MethodPost).Name("complete_order")
	api.HandleFunc("/orders/{id}/cancel", h.cancelOrder).Methods(http.MethodPost).Name("cancel_order")

	api.HandleFunc("/evaluations", h.createEvaluation).Methods(http.MethodPost).Name("create_evaluation")
	api.HandleFunc("/evaluations/made", h.evaluationList(model.ListAsBuyer)).Methods(http.MethodGet).Name("list_evaluations_made")
	api.HandleFunc("/evaluations/received", h.evaluationList(model.ListAsSeller)).Methods(http.MethodGet).Name("list_evaluations_received")
	api.HandleFunc("/evaluations/admin", h.evaluationList(model.ListAll)).Methods(http.MethodGet).Name("list_all_evaluations")
	api.HandleFunc("/evaluations/{id}", h.getEvaluation).Methods(http.MethodGet).Name("get_evaluation")
	api.HandleFunc("/evaluations/{id}", h.deleteEvaluation).Methods(http.MethodDelete).Name("delete_evaluation")

	api.HandleFunc("/return-requests", h.createReturnRequest).Methods(http.MethodPost).Name("create_return_request")
	api.HandleFunc("/return-requests/mine", h.listReturnRequests).Methods(http.MethodGet).Name("list_return_requests")
	api.HandleFunc("/return-requests/admin", h.listAllReturnRequests).Methods(http.MethodGet).Name("list_all_return_requests")
	api.HandleFunc("/return-requests/{id}", h.getReturnRequest).Methods(http.MethodGet).Name("get_return_request")
	api.HandleFunc("/return-requests/{id}/seller-decision", h.sellerDecide).Methods(http.MethodPost).Name("seller_decision")
	api.HandleFunc("/return-requests/{id}/escalate", h.escalateReturnRequest).Methods(http.MethodPost).Name("escalate_return_request")
	api.HandleFunc("/return-requests/{id}/admin-resolve", h.adminResolve).Methods(http.MethodPost).Name("admin_resolve")
	api.HandleFunc("/return-requests/{id}/close", h.closeReturnRequest).Methods(http.MethodPost).Name("close_return_request")

	api.HandleFunc("/users/{id}/credit", h.adjustCredit).Methods(http.MethodPost).Name("adjust_credit")

	return logMiddleware(logger, r)
}
