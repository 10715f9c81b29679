package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableCreateAndGet(t *testing.T) {
	table := NewTable(time.Minute, 50*time.Millisecond)
	defer table.Close()

	sess := table.Create("", nil)
	assert.NotEmpty(t, sess.ID)
	assert.False(t, sess.IsEncrypted())

	got, err := table.Get(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)
}

func TestTableGetMissing(t *testing.T) {
	table := NewTable(time.Minute, 50*time.Millisecond)
	defer table.Close()

	_, err := table.Get("does-not-exist")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTableTouchBumpsTimestamp(t *testing.T) {
	table := NewTable(time.Minute, 50*time.Millisecond)
	defer table.Close()

	sess := table.Create("", nil)
	before := sess.Timestamp
	time.Sleep(5 * time.Millisecond)

	require.NoError(t, table.Touch(sess.ID))

	got, err := table.Get(sess.ID)
	require.NoError(t, err)
	assert.True(t, got.Timestamp.After(before))
}

func TestTableBindDatabase(t *testing.T) {
	table := NewTable(time.Minute, 50*time.Millisecond)
	defer table.Close()

	sess := table.Create("", nil)
	require.NoError(t, table.BindDatabase(sess.ID, "pets"))

	got, err := table.Get(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "pets", got.ConnectedToDatabase)
	assert.True(t, got.IsBound())
}

func TestTableSweeperEvictsExpiredSessions(t *testing.T) {
	table := NewTable(20*time.Millisecond, 10*time.Millisecond)
	defer table.Close()

	sess := table.Create("", nil)

	assert.Eventually(t, func() bool {
		_, err := table.Get(sess.ID)
		return err != nil
	}, time.Second, 5*time.Millisecond)
}

func TestTableGetEvictsExpiredOnAccess(t *testing.T) {
	table := NewTable(10*time.Millisecond, time.Hour)
	defer table.Close()

	sess := table.Create("", nil)
	time.Sleep(20 * time.Millisecond)

	_, err := table.Get(sess.ID)
	assert.ErrorIs(t, err, ErrExpired)
	assert.Equal(t, 0, table.Len())
}

func TestTableDelete(t *testing.T) {
	table := NewTable(time.Minute, 50*time.Millisecond)
	defer table.Close()

	sess := table.Create("", nil)
	table.Delete(sess.ID)

	_, err := table.Get(sess.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTableEncryptedSession(t *testing.T) {
	table := NewTable(time.Minute, 50*time.Millisecond)
	defer table.Close()

	enc := &Encryption{AESKey: []byte("0123456789abcdef0123456789abcdef"), Nonce: []byte("123456789012")}
	sess := table.Create("", enc)
	assert.True(t, sess.IsEncrypted())
}
