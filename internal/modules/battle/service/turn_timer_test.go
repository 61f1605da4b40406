package service

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnsureTurnTimingInitializesFreshRecord(t *testing.T) {
	record := newTestRecord(0)
	record.TurnStartMs = 0
	record.TurnEndsAtMs = 0
	record.TurnLimitMs = 0
	record.GraceMs = 0

	EnsureTurnTiming(record, testRules(), 5000)

	require.Equal(t, int64(15000), record.TurnLimitMs)
	require.Equal(t, int64(250), record.GraceMs)
	require.Equal(t, int64(5000), record.TurnStartMs)
	require.Equal(t, int64(20000), record.TurnEndsAtMs)
}

func TestEnsureTurnTimingDerivesDeadlineFromStart(t *testing.T) {
	record := newTestRecord(0)
	record.TurnStartMs = 3000
	record.TurnEndsAtMs = 0

	EnsureTurnTiming(record, testRules(), 9999)

	require.Equal(t, int64(3000), record.TurnStartMs)
	require.Equal(t, int64(18000), record.TurnEndsAtMs)
}

func TestEnsureTurnTimingLeavesCompleteFieldsAlone(t *testing.T) {
	record := newTestRecord(1000)

	EnsureTurnTiming(record, testRules(), 99999)

	require.Equal(t, int64(1000), record.TurnStartMs)
	require.Equal(t, int64(16000), record.TurnEndsAtMs)
}

func TestIsTurnExpiredHonorsGraceWindow(t *testing.T) {
	record := newTestRecord(1000)
	// 截止时刻 16000，宽限 250ms

	require.False(t, IsTurnExpired(record, 16000))
	require.False(t, IsTurnExpired(record, 16250))
	require.True(t, IsTurnExpired(record, 16251))
}

func TestResetTurnTimingStartsNewWindow(t *testing.T) {
	record := newTestRecord(1000)

	ResetTurnTiming(record, testRules(), 50000)

	require.Equal(t, int64(50000), record.TurnStartMs)
	require.Equal(t, int64(65000), record.TurnEndsAtMs)
	require.Equal(t, int64(15000), record.TurnLimitMs)
	require.Equal(t, int64(250), record.GraceMs)
}
