package cli

import (
	"context"
	"time"

	"github.com/talentscout/scout/internal/extension"
	"github.com/talentscout/scout/internal/session"
)

// Compile-time interface checks.
var (
	_ WalletDialer           = DialWallet
	_ session.ProviderDialer = session.DialProvider
)

// WalletDialer connects to the wallet at endpoint. The returned func closes
// the connection. On error the Extension must be a nil interface.
type WalletDialer func(ctx context.Context, endpoint string, poll time.Duration) (extension.Extension, func(), error)

// DialWallet is the WalletDialer backed by extension.Dial.
func DialWallet(ctx context.Context, endpoint string, poll time.Duration) (extension.Extension, func(), error) {
	var opts []extension.Option
	if poll > 0 {
		opts = append(opts, extension.WithPollInterval(poll))
	}
	client, err := extension.Dial(ctx, endpoint, opts...)
	if err != nil {
		return nil, nil, err
	}
	return client, client.Close, nil
}
