package notify

import (
	"go.uber.org/fx"

	"github.com/kelvin888/qt-fashion-backend-sub000/internal/usecase"
)

// Module provides the inbox notifier.
var Module = fx.Provide(
	NewInboxNotifier,
	func(n *InboxNotifier) usecase.Notifier { return n },
)
