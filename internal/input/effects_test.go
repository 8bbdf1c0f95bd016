package input

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rockorager/prise/internal/uihost"
)

type fakeStore struct {
	saved   map[string]*uihost.Widget
	savedID map[string][]int
	renames map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{saved: make(map[string]*uihost.Widget), savedID: make(map[string][]int), renames: make(map[string]string)}
}

func (s *fakeStore) Save(name string, tree *uihost.Widget, ptyIDs []int) error {
	s.saved[name] = tree
	s.savedID[name] = ptyIDs
	return nil
}

func (s *fakeStore) Load(name string) (*uihost.Widget, []int, error) {
	return s.saved[name], s.savedID[name], nil
}

func (s *fakeStore) Rename(oldName, newName string) error {
	s.saved[newName] = s.saved[oldName]
	s.savedID[newName] = s.savedID[oldName]
	delete(s.saved, oldName)
	return nil
}

func (s *fakeStore) List() ([]string, error) {
	var names []string
	for n := range s.saved {
		names = append(names, n)
	}
	return names, nil
}

func newTestEffects(t *testing.T) (*ClientEffects, *Router, *fakeRPC, *fakeStore) {
	r, rpc, _ := newTestRouter(t, passthroughScript)
	r.tree = &uihost.Widget{
		Kind: uihost.KindRow,
		Children: []*uihost.Widget{
			{Kind: uihost.KindSurface, PTYID: 3},
			{Kind: uihost.KindSurface, PTYID: 4},
		},
	}
	store := newFakeStore()
	eff := NewClientEffects(r, store)
	return eff, r, rpc, store
}

func TestEffectsSpawnDelegatesToRPC(t *testing.T) {
	eff, _, _, _ := newTestEffects(t)
	id, err := eff.Spawn(24, 80, "/tmp")
	require.NoError(t, err)
	assert.Equal(t, 1, id)
}

func TestEffectsDetachSavesThenDetaches(t *testing.T) {
	eff, _, rpc, store := newTestEffects(t)
	require.NoError(t, eff.Detach("work"))
	assert.Contains(t, store.saved, "work")
	assert.ElementsMatch(t, []int{3, 4}, store.savedID["work"])
	assert.ElementsMatch(t, []int{3, 4}, rpc.detached)
}

func TestEffectsSwitchSessionAttachesAndApplies(t *testing.T) {
	eff, r, rpc, store := newTestEffects(t)
	restored := &uihost.Widget{Kind: uihost.KindSurface, PTYID: 9}
	store.saved["other"] = restored
	store.savedID["other"] = []int{9}

	require.NoError(t, eff.SwitchSession("other"))
	assert.Contains(t, rpc.attached, 9)
	assert.Same(t, restored, r.tree)
}

func TestEffectsSetTimeoutFiresOnTimeout(t *testing.T) {
	eff, _, _, _ := newTestEffects(t)
	fired := make(chan int, 1)
	eff.OnTimeout = func(id int) { fired <- id }

	eff.SetTimeout(10*time.Millisecond, 42)
	select {
	case id := <-fired:
		assert.Equal(t, 42, id)
	case <-time.After(200 * time.Millisecond):
		t.Fatal("timeout never fired")
	}
}

func TestEffectsSetTimeoutCancel(t *testing.T) {
	eff, _, _, _ := newTestEffects(t)
	fired := make(chan int, 1)
	eff.OnTimeout = func(id int) { fired <- id }

	cancel := eff.SetTimeout(30*time.Millisecond, 1)
	cancel()

	select {
	case <-fired:
		t.Fatal("cancelled timer must not fire")
	case <-time.After(60 * time.Millisecond):
	}
}

func TestEffectsCreateTextInputUnique(t *testing.T) {
	eff, _, _, _ := newTestEffects(t)
	a := eff.CreateTextInput()
	b := eff.CreateTextInput()
	assert.NotEqual(t, a, b)
}
