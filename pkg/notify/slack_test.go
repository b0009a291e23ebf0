package notify_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dokuczacz/CV-generator-repo-sub000/pkg/notify"
)

func TestNewSlackNotifier_DisabledReturnsNil(t *testing.T) {
	require.Nil(t, notify.NewSlackNotifier(false, "xoxb-token", "C123"))
	require.Nil(t, notify.NewSlackNotifier(true, "", "C123"))
	require.Nil(t, notify.NewSlackNotifier(true, "xoxb-token", ""))
}

func TestSlackNotifier_NilReceiverIsNoOp(t *testing.T) {
	var n *notify.SlackNotifier
	require.NotPanics(t, func() { n.NotifyRendered(context.Background(), "sess-1", "cv") })
}
