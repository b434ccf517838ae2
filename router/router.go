package router

import (
	"go-finance-api/handler"
	"net/http"
)

func NewRouter(accountHandler *handler.AccountHandler, transactionHandler *handler.TransactionHandler, paymentHandler *handler.PaymentHandler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", handler.HealthCheck)

	authenticated := http.NewServeMux()

	// Accounts
	authenticated.Handle("GET /accounts", handler.ErrorHandlingMiddleware(accountHandler.ListAccounts))
	authenticated.Handle("POST /accounts", handler.ErrorHandlingMiddleware(accountHandler.CreateAccount))
	authenticated.Handle("GET /accounts/balance/total", handler.ErrorHandlingMiddleware(accountHandler.GetTotalBalance))
	authenticated.Handle("GET /accounts/{id}", handler.ErrorHandlingMiddleware(accountHandler.GetAccount))
	authenticated.Handle("PUT /accounts/{id}", handler.ErrorHandlingMiddleware(accountHandler.UpdateAccount))
	authenticated.Handle("DELETE /accounts/{id}", handler.ErrorHandlingMiddleware(accountHandler.DeleteAccount))
	authenticated.Handle("PATCH /accounts/{id}/balance", handler.ErrorHandlingMiddleware(accountHandler.AdjustBalance))

	// Transactions
	authenticated.Handle("GET /transactions", handler.ErrorHandlingMiddleware(transactionHandler.ListTransactions))
	authenticated.Handle("POST /transactions", handler.ErrorHandlingMiddleware(transactionHandler.CreateTransaction))
	authenticated.Handle("GET /transactions/account/{accountId}", handler.ErrorHandlingMiddleware(transactionHandler.ListTransactionsByAccount))
	authenticated.Handle("GET /transactions/category/{category}", handler.ErrorHandlingMiddleware(transactionHandler.ListTransactionsByCategory))
	authenticated.Handle("GET /transactions/stats/{year}/{month}", handler.ErrorHandlingMiddleware(transactionHandler.GetMonthlyStats))
	authenticated.Handle("GET /transactions/{id}", handler.ErrorHandlingMiddleware(transactionHandler.GetTransaction))
	authenticated.Handle("PUT /transactions/{id}", handler.ErrorHandlingMiddleware(transactionHandler.UpdateTransaction))
	authenticated.Handle("DELETE /transactions/{id}", handler.ErrorHandlingMiddleware(transactionHandler.DeleteTransaction))

	// Payments
	authenticated.Handle("GET /payments", handler.ErrorHandlingMiddleware(paymentHandler.ListPayments))
	authenticated.Handle("POST /payments", handler.ErrorHandlingMiddleware(paymentHandler.CreatePayment))
	authenticated.Handle("GET /payments/pending", handler.ErrorHandlingMiddleware(paymentHandler.ListPendingPayments))
	authenticated.Handle("GET /payments/status/{status}", handler.ErrorHandlingMiddleware(paymentHandler.ListPaymentsByStatus))
	authenticated.Handle("POST /payments/process-scheduled", handler.ErrorHandlingMiddleware(paymentHandler.ProcessScheduledPayments))
	authenticated.Handle("GET /payments/{id}", handler.ErrorHandlingMiddleware(paymentHandler.GetPayment))
	authenticated.Handle("PUT /payments/{id}", handler.ErrorHandlingMiddleware(paymentHandler.UpdatePayment))
	authenticated.Handle("PATCH /payments/{id}/cancel", handler.ErrorHandlingMiddleware(paymentHandler.CancelPayment))
	authenticated.Handle("POST /payments/{id}/process", handler.ErrorHandlingMiddleware(paymentHandler.ProcessPayment))

	mux.Handle("/", handler.IdentityMiddleware(authenticated))

	return mux
}
