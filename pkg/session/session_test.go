package session

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kurlclub/kurlclub-forms/pkg/schema"
	"github.com/kurlclub/kurlclub-forms/pkg/value"
	"github.com/kurlclub/kurlclub-forms/pkg/widgets"
)

func testSchema(t *testing.T) *schema.Schema {
	t.Helper()
	s, err := schema.Define(
		schema.FieldDescriptor{Key: "name", Kind: schema.KindText, Label: "Name", Required: true},
		schema.FieldDescriptor{Key: "dob", Kind: schema.KindDate, Label: "Date of birth", Required: true},
		schema.FieldDescriptor{Key: "phone", Kind: schema.KindPhone, Label: "Phone", Required: true},
		schema.FieldDescriptor{Key: "gender", Kind: schema.KindSelect, Label: "Gender", Default: value.Option("")},
	)
	require.NoError(t, err)
	return s
}

func newSession(t *testing.T) *Session {
	t.Helper()
	sess, err := New(testSchema(t), widgets.NewRegistry())
	require.NoError(t, err)
	return sess
}

func TestNew_InitialisesDefaults(t *testing.T) {
	sess := newSession(t)

	v, err := sess.Value("name")
	require.NoError(t, err)
	require.True(t, v.IsEmpty())
	require.Equal(t, StateEditing, sess.State())
}

func TestSetValue_UnknownKey(t *testing.T) {
	sess := newSession(t)
	err := sess.SetValue("ghost", widgets.Text("x"))
	require.ErrorIs(t, err, schema.ErrFieldNotFound)
}

func TestSetValue_CoercionErrorKeepsIntermediate(t *testing.T) {
	sess := newSession(t)

	err := sess.SetValue("phone", widgets.Text("abc"))
	var cerr *widgets.CoercionError
	require.ErrorAs(t, err, &cerr)

	msg, ok := sess.InputError("phone")
	require.True(t, ok)
	require.NotEmpty(t, msg)

	// A later good keystroke clears the inline error.
	require.NoError(t, sess.SetValue("phone", widgets.Text("9876543210")))
	_, ok = sess.InputError("phone")
	require.False(t, ok)

	v, err := sess.Value("phone")
	require.NoError(t, err)
	got, _ := v.Str()
	require.Equal(t, "+919876543210", got)
}

func TestSetValue_DateKeystrokesInOrder(t *testing.T) {
	sess := newSession(t)

	for _, typed := range []string{"1", "15", "150", "1506", "15062", "150620", "1506202", "15062024"} {
		require.NoError(t, sess.SetValue("dob", widgets.Text(typed)))
	}

	v, err := sess.Value("dob")
	require.NoError(t, err)
	got, _ := v.Str()
	require.Equal(t, "2024-06-15T00:00:00Z", got)

	display, err := sess.Display("dob")
	require.NoError(t, err)
	require.Equal(t, "15/06/2024", display)
}

func TestSubmitGuard_DoubleClickIsNoOp(t *testing.T) {
	sess := newSession(t)

	token, err := sess.BeginSubmit()
	require.NoError(t, err)

	_, err = sess.BeginSubmit()
	require.ErrorIs(t, err, ErrSubmitInFlight)

	require.True(t, sess.EndSubmit(token, false))
	require.Equal(t, StateEditing, sess.State())
}

func TestSubmitGuard_ConcurrentAttempts(t *testing.T) {
	sess := newSession(t)

	var wg sync.WaitGroup
	var mu sync.Mutex
	started := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := sess.BeginSubmit(); err == nil {
				mu.Lock()
				started++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 1, started, "exactly one submission may start")
}

func TestSuccessIsTerminal(t *testing.T) {
	sess := newSession(t)

	token, err := sess.BeginSubmit()
	require.NoError(t, err)
	require.True(t, sess.EndSubmit(token, true))
	require.Equal(t, StateSucceeded, sess.State())

	err = sess.SetValue("name", widgets.Text("John"))
	require.ErrorIs(t, err, ErrNotEditing)

	_, err = sess.BeginSubmit()
	require.ErrorIs(t, err, ErrCompleted)

	sess.Reset()
	require.Equal(t, StateEditing, sess.State())
	require.NoError(t, sess.SetValue("name", widgets.Text("John")))
}

func TestEditingBlockedWhileSubmitting(t *testing.T) {
	sess := newSession(t)

	_, err := sess.BeginSubmit()
	require.NoError(t, err)

	err = sess.SetValue("name", widgets.Text("John"))
	require.ErrorIs(t, err, ErrNotEditing)
}

func TestAbandonDiscardsLateResult(t *testing.T) {
	sess := newSession(t)

	token, err := sess.BeginSubmit()
	require.NoError(t, err)

	sess.Abandon()

	// The network result resolves after the user navigated away; it must not
	// mutate the session.
	require.False(t, sess.EndSubmit(token, true))

	_, err = sess.BeginSubmit()
	require.ErrorIs(t, err, ErrAbandoned)
}

func TestResetInvalidatesInFlightToken(t *testing.T) {
	sess := newSession(t)

	token, err := sess.BeginSubmit()
	require.NoError(t, err)

	sess.Reset()
	require.False(t, sess.EndSubmit(token, true))
	require.Equal(t, StateEditing, sess.State())
}

func TestSnapshotIsACopy(t *testing.T) {
	sess := newSession(t)
	require.NoError(t, sess.SetValue("name", widgets.Text("John")))

	snap := sess.Snapshot()
	snap["name"] = value.String("hacked")

	v, err := sess.Value("name")
	require.NoError(t, err)
	got, _ := v.Str()
	require.Equal(t, "John", got)
}

func TestNew_RequiresWidgetCoverage(t *testing.T) {
	s, err := schema.Define(schema.FieldDescriptor{Key: "name", Kind: schema.KindText})
	require.NoError(t, err)

	_, err = New(s, nil)
	require.Error(t, err)
}

func TestErrorsAreTyped(t *testing.T) {
	sess := newSession(t)
	_, err := sess.BeginSubmit()
	require.NoError(t, err)
	_, err = sess.BeginSubmit()
	require.True(t, errors.Is(err, ErrSubmitInFlight))
}
