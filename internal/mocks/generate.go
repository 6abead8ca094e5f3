// Package mocks はリポジトリインターフェースのgomockモックを提供する。
//
// インターフェースを変更した場合は以下で再生成する:
//
//	go generate ./internal/mocks
//
// テストでの使用例:
//
//	ctrl := gomock.NewController(t)
//	orders := mocks.NewMockOrderRepository(ctrl)
//	orders.EXPECT().List(gomock.Any(), model.OrderFilter{Email: "u@test.com"}).Return(nil, nil)
package mocks

//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=service_repository_mock.go github.com/hitoshi/cardoctor/internal/repository ServiceRepository
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=order_repository_mock.go github.com/hitoshi/cardoctor/internal/repository OrderRepository
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=pinger_mock.go github.com/hitoshi/cardoctor/internal/repository Pinger
