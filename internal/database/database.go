package database

import (
	client "inspector/internal/database/client"
	fluentdRepo "inspector/internal/database/fluentd/repository"

	"github.com/google/wire"
)

// ProviderSet 定義所有 DB Client 的依賴
var ProviderSet = wire.NewSet(
	client.NewFluentdClient,
	fluentdRepo.ProviderSet,
)
