// Package mocks provides gomock implementations of the core ports for service and handler tests.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	repo := mocks.NewMockDispatchConfigRepository(ctrl)
//	repo.EXPECT().Get(gomock.Any()).Return(cfg, nil)
package mocks

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=dispatch_tx_mock.go github.com/target/ticketgate/internal/core DispatchTx
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=dispatch_config_repository_mock.go github.com/target/ticketgate/internal/core DispatchConfigRepository
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=record_repository_mock.go github.com/target/ticketgate/internal/core RecordRepository
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=change_waiter_mock.go github.com/target/ticketgate/internal/core ChangeWaiter
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=ticket_notifier_mock.go github.com/target/ticketgate/internal/core TicketNotifier
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=cache_repository_mock.go github.com/target/ticketgate/internal/core CacheRepository
