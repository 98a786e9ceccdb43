package vault

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BioHaZard1/mooltipass/lib/storage"
	"github.com/BioHaZard1/mooltipass/lib/util"
)

func newTestStore(t *testing.T) (*Store, *storage.MemFlash) {
	t.Helper()
	flash := storage.NewMemFlash()
	store, err := NewStore(flash, NewMemProfileStore())
	require.NoError(t, err)
	return store, flash
}

func TestAddAndFindContext(t *testing.T) {
	store, _ := newTestStore(t)

	addr, err := store.AddContext(1, KindCredential, "example.com")
	require.NoError(t, err)
	require.NotEqual(t, storage.NodeAddrNull, addr)

	found, err := store.FindContext(1, KindCredential, "example.com")
	require.NoError(t, err)
	assert.Equal(t, addr, found)

	_, err = store.FindContext(1, KindCredential, "missing.org")
	assert.ErrorIs(t, err, util.ErrNotFound)
}

func TestAddContext_ChainStaysSorted(t *testing.T) {
	store, flash := newTestStore(t)

	for _, svc := range []string{"mail.net", "auth.io", "zebra.org", "example.com"} {
		_, err := store.AddContext(1, KindCredential, svc)
		require.NoError(t, err)
	}

	var got []string
	addr := store.Profiles().StartingParent(1)
	for addr != storage.NodeAddrNull {
		node, err := flash.ReadNode(addr)
		require.NoError(t, err)
		got = append(got, node.Service())
		addr = node.NextParent()
	}
	assert.Equal(t, []string{"auth.io", "example.com", "mail.net", "zebra.org"}, got)
}

func TestAddContext_ExistingNameIsIdempotent(t *testing.T) {
	store, _ := newTestStore(t)

	a, err := store.AddContext(1, KindCredential, "example.com")
	require.NoError(t, err)
	b, err := store.AddContext(1, KindCredential, "example.com")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestFindContext_ScopedByUserAndKind(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.AddContext(1, KindCredential, "example.com")
	require.NoError(t, err)

	_, err = store.FindContext(2, KindCredential, "example.com")
	assert.ErrorIs(t, err, util.ErrNotFound, "contexts are per user")

	_, err = store.FindContext(1, KindData, "example.com")
	assert.ErrorIs(t, err, util.ErrNotFound, "credential and data chains are separate")
}

func TestCacheInvalidation(t *testing.T) {
	store, flash := newTestStore(t)

	addr, err := store.AddContext(1, KindCredential, "example.com")
	require.NoError(t, err)

	// rewire flash behind the cache's back, as raw memory mgmt writes do
	node, err := flash.ReadNode(addr)
	require.NoError(t, err)
	node.SetService("renamed.com")
	require.NoError(t, flash.WriteNode(addr, node))

	cached, err := store.FindContext(1, KindCredential, "example.com")
	require.NoError(t, err)
	assert.Equal(t, addr, cached, "stale entry served until invalidation")

	store.InvalidateCache()
	_, err = store.FindContext(1, KindCredential, "example.com")
	assert.ErrorIs(t, err, util.ErrNotFound)
}

func TestSetLoginAndCredentialRoundTrip(t *testing.T) {
	store, _ := newTestStore(t)

	parent, err := store.AddContext(1, KindCredential, "example.com")
	require.NoError(t, err)

	child, err := store.SetLogin(parent, 1, "alice")
	require.NoError(t, err)
	require.NoError(t, store.SetPassword(child, 1, []byte("hunter2")))

	login, err := store.Login(child, 1)
	require.NoError(t, err)
	assert.Equal(t, "alice", login)

	pw, err := store.Password(child, 1)
	require.NoError(t, err)
	assert.Equal(t, []byte("hunter2"), pw[:7])

	first, err := store.FirstChild(parent)
	require.NoError(t, err)
	assert.Equal(t, child, first)
}

func TestSetLogin_SortsAndDeduplicates(t *testing.T) {
	store, flash := newTestStore(t)

	parent, err := store.AddContext(1, KindCredential, "example.com")
	require.NoError(t, err)

	bob, err := store.SetLogin(parent, 1, "bob")
	require.NoError(t, err)
	alice, err := store.SetLogin(parent, 1, "alice")
	require.NoError(t, err)

	again, err := store.SetLogin(parent, 1, "bob")
	require.NoError(t, err)
	assert.Equal(t, bob, again)

	first, err := store.FirstChild(parent)
	require.NoError(t, err)
	assert.Equal(t, alice, first, "children sort by login")

	node, err := flash.ReadNode(alice)
	require.NoError(t, err)
	assert.Equal(t, bob, node.NextChild())
}

func TestReadNode_EnforcesOwner(t *testing.T) {
	store, _ := newTestStore(t)

	parent, err := store.AddContext(1, KindCredential, "example.com")
	require.NoError(t, err)

	_, err = store.ReadNode(parent, 2)
	assert.ErrorIs(t, err, util.ErrPermission)
}

func TestCheckOwner(t *testing.T) {
	store, _ := newTestStore(t)

	parent, err := store.AddContext(1, KindCredential, "example.com")
	require.NoError(t, err)

	assert.NoError(t, store.CheckOwner(parent, 1))
	assert.ErrorIs(t, store.CheckOwner(parent, 2), util.ErrPermission)
	assert.NoError(t, store.CheckOwner(storage.AddrOf(5, 0), 2), "free slots are writable by anyone")
}

func TestCheckPassword(t *testing.T) {
	store, _ := newTestStore(t)

	parent, err := store.AddContext(1, KindCredential, "example.com")
	require.NoError(t, err)
	child, err := store.SetLogin(parent, 1, "alice")
	require.NoError(t, err)
	require.NoError(t, store.SetPassword(child, 1, []byte("hunter2")))

	good := []byte("hunter2")
	ok, err := store.CheckPassword(child, 1, good)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, make([]byte, len(good)), good, "candidate is wiped")

	_, err = store.CheckPassword(child, 1, []byte("letmein"))
	assert.ErrorIs(t, err, util.ErrPasswordMismatch)
}

func TestCheckPassword_FixedDuration(t *testing.T) {
	if testing.Short() {
		t.Skip("timing test")
	}
	store, _ := newTestStore(t)

	parent, err := store.AddContext(1, KindCredential, "example.com")
	require.NoError(t, err)
	child, err := store.SetLogin(parent, 1, "alice")
	require.NoError(t, err)
	require.NoError(t, store.SetPassword(child, 1, []byte("hunter2")))

	elapsed := func(candidate string) time.Duration {
		start := time.Now()
		store.CheckPassword(child, 1, []byte(candidate))
		return time.Since(start)
	}

	match := elapsed("hunter2")
	miss := elapsed("x")

	assert.GreaterOrEqual(t, match, util.PasswordCheckDuration)
	assert.GreaterOrEqual(t, miss, util.PasswordCheckDuration)
	assert.InDelta(t, match.Seconds(), miss.Seconds(), 0.1, "duration does not depend on outcome")
}

func TestDataChain(t *testing.T) {
	store, _ := newTestStore(t)

	parent, err := store.AddContext(1, KindData, "backup")
	require.NoError(t, err)

	// enough blocks to span two data nodes
	var blocks [][]byte
	for i := 0; i < storage.DataBlocksPerNode+2; i++ {
		b := make([]byte, storage.DataBlockSize)
		for j := range b {
			b[j] = byte(i)
		}
		blocks = append(blocks, b)
		require.NoError(t, store.AddDataBlock(parent, 1, b))
	}

	var cursor DataCursor
	cursor.Reset()
	for i, want := range blocks {
		got, err := store.ReadDataBlock(parent, 1, &cursor)
		require.NoError(t, err, "block %d", i)
		assert.Equal(t, want, got, "block %d", i)
	}
	_, err = store.ReadDataBlock(parent, 1, &cursor)
	assert.ErrorIs(t, err, util.ErrNotFound, "cursor stops at the chain end")
}

func TestAddDataBlock_RejectsWrongSize(t *testing.T) {
	store, _ := newTestStore(t)

	parent, err := store.AddContext(1, KindData, "backup")
	require.NoError(t, err)

	err = store.AddDataBlock(parent, 1, make([]byte, storage.DataBlockSize-1))
	assert.ErrorIs(t, err, util.ErrInvalidField)
}

func TestProfileStore(t *testing.T) {
	p := NewMemProfileStore()

	require.NoError(t, p.SetFavorite(1, 3, Favorite{Parent: 0x0010, Child: 0x0011}))
	fav, err := p.Favorite(1, 3)
	require.NoError(t, err)
	assert.Equal(t, Favorite{Parent: 0x0010, Child: 0x0011}, fav)

	_, err = p.Favorite(1, FavoriteCount)
	assert.ErrorIs(t, err, util.ErrInvalidField)

	require.NoError(t, p.SetCtrValue(1, [CtrValueSize]byte{1, 2, 3}))
	assert.Equal(t, [CtrValueSize]byte{1, 2, 3}, p.CtrValue(1))

	e := CpzEntry{UserID: 1}
	copy(e.Cpz[:], "cpzvalue")
	require.NoError(t, p.AddCpzEntry(e))
	entries := p.AllCpzEntries()
	require.Len(t, entries, 1)
	assert.Equal(t, e, entries[0])
}
