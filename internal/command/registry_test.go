package command

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Register(t *testing.T) {
	f := newFixture()
	r := NewRegistry(nil)

	require.NoError(t, r.Register(f.setValue()))
	require.NoError(t, r.Register(f.getValue()))

	err := r.Register(f.setValue())
	assert.ErrorIs(t, err, ErrAlreadyRegistered)

	err = r.Register(Descriptor{})
	assert.ErrorIs(t, err, ErrNameRequired)

	err = r.Register(Descriptor{Name: "handmade"})
	assert.Error(t, err)

	names := make([]string, 0, r.Len())
	for _, d := range r.List() {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"setValue", "getValue"}, names)

	d, ok := r.Lookup("setValue")
	require.True(t, ok)
	assert.Equal(t, "Set the document value", d.Summary)
	assert.True(t, d.Undoable())
	assert.Equal(t, 2, d.Syntax().Len())
}

func TestRegistry_NewAdapter(t *testing.T) {
	f := newFixture()
	r := NewRegistry(nil)
	require.NoError(t, r.Register(f.setValue()))

	a, err := r.NewAdapter("setValue")
	require.NoError(t, err)
	assert.Equal(t, StateCreated, a.State())

	_, err = r.NewAdapter("dfgNope")
	assert.ErrorIs(t, err, ErrUnknownCommand)
	assert.Equal(t, KindArgument, KindOf(err))

	r.Reset()
	assert.Equal(t, 0, r.Len())
}

func TestGlobalRegistry_Lifecycle(t *testing.T) {
	t.Cleanup(Teardown)
	f := newFixture()

	_, err := Global()
	assert.ErrorIs(t, err, ErrNotInitialized)

	_, err = Init(nil, func(r *Registry) error { return errors.New("boom") })
	assert.Error(t, err)
	_, err = Global()
	assert.ErrorIs(t, err, ErrNotInitialized)

	reg, err := Init(nil, func(r *Registry) error { return r.Register(f.setValue()) })
	require.NoError(t, err)

	got, err := Global()
	require.NoError(t, err)
	assert.Same(t, reg, got)

	_, err = Init(nil, func(r *Registry) error { return nil })
	assert.ErrorIs(t, err, ErrAlreadyInitialized)

	Teardown()
	_, err = Global()
	assert.ErrorIs(t, err, ErrNotInitialized)
}
