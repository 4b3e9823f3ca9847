package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lexfind/contact-crawler/internal/crawler"
	"github.com/lexfind/contact-crawler/internal/notify"
)

type closableNotifier struct {
	closed bool
}

func (n *closableNotifier) InstitutionCompleted(context.Context, string, int, string) error {
	return nil
}

func (n *closableNotifier) Close() error {
	n.closed = true
	return nil
}

func TestCloseNotifierFlushesClosableProviders(t *testing.T) {
	n := &closableNotifier{}
	closeNotifier(n, zap.NewNop())
	require.True(t, n.closed)

	// Providers without a Close are left alone.
	closeNotifier(notify.Noop{}, zap.NewNop())
}

func TestPubSubNotifierIsClosable(t *testing.T) {
	var n crawler.Notifier = (*notify.PubSub)(nil)
	_, ok := n.(interface{ Close() error })
	require.True(t, ok, "batched completion events must flush on shutdown")
}
