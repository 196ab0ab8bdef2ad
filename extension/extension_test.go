package extension

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"

	"github.com/xraph/fundme"
	"github.com/xraph/fundme/network"
	"github.com/xraph/fundme/oracle"
	"github.com/xraph/fundme/receipt"
	"github.com/xraph/fundme/store/journal"
	"github.com/xraph/fundme/store/leveldb"
	"github.com/xraph/fundme/store/memory"
	"github.com/xraph/fundme/store/sqlite"
	"github.com/xraph/fundme/types"
)

const ownerHex = "0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266"

func TestMergeConfigurations(t *testing.T) {
	yaml := Config{Network: "sepolia", MaxPriceAge: time.Hour}
	prog := Config{Owner: ownerHex, Network: "hardhat", MinimumUSD: "75", DisableMigrate: true}

	got := mergeConfigurations(yaml, prog)
	if got.Network != "sepolia" {
		t.Errorf("Network: got %q, want the file value", got.Network)
	}
	if got.Owner != ownerHex || got.MinimumUSD != "75" {
		t.Errorf("gaps not filled: %+v", got)
	}
	if !got.DisableMigrate || got.MaxPriceAge != time.Hour {
		t.Errorf("unexpected merge: %+v", got)
	}

	defaults := mergeWithDefaults(Config{})
	if defaults.Network != "hardhat" || defaults.MinimumUSD != "50" {
		t.Errorf("defaults: %+v", defaults)
	}
}

func TestBuildEngine(t *testing.T) {
	e := New(WithOwner(ownerHex), WithMinimumUSD("12.5"))
	e.config = mergeWithDefaults(e.config)

	eng, err := e.buildEngine(context.Background())
	if err != nil {
		t.Fatalf("buildEngine: %v", err)
	}
	if eng.Owner().String() != ownerHex {
		t.Errorf("Owner: got %s", eng.Owner())
	}
	want, err := types.ParseEther("12.5")
	if err != nil {
		t.Fatal(err)
	}
	if !eng.MinimumUSD().Equal(want) {
		t.Errorf("MinimumUSD: got %s", eng.MinimumUSD())
	}
	if _, ok := eng.PriceFeed().(*oracle.MockAggregator); !ok {
		t.Errorf("hardhat should resolve to the mock feed, got %T", eng.PriceFeed())
	}
	e.engine = eng
	if err := e.Health(context.Background()); err != nil {
		t.Errorf("Health: %v", err)
	}
}

func TestBuildEngineErrors(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
		want error
	}{
		{"missing owner", nil, fundme.ErrInvalidInput},
		{"bad owner", []Option{WithOwner("0x12")}, fundme.ErrInvalidInput},
		{"bad minimum", []Option{WithOwner(ownerHex), WithMinimumUSD("fifty")}, fundme.ErrInvalidInput},
		{"unknown network", []Option{WithOwner(ownerHex), WithNetwork("mars")}, network.ErrUnknownNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(tt.opts...)
			e.config = mergeWithDefaults(e.config)
			if _, err := e.buildEngine(context.Background()); !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestLiveNetworkUsesDialer(t *testing.T) {
	feed := oracle.NewDefaultMockAggregator()
	var dialed string
	e := New(
		WithOwner(ownerHex),
		WithNetwork("sepolia"),
		WithDialer(func(n network.Network) (oracle.PriceFeed, error) {
			dialed = n.Name
			return feed, nil
		}),
	)
	e.config = mergeWithDefaults(e.config)

	eng, err := e.buildEngine(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if dialed != "sepolia" || eng.PriceFeed() != oracle.PriceFeed(feed) {
		t.Errorf("dialer not used: dialed %q", dialed)
	}
}

func TestHealthBeforeRegister(t *testing.T) {
	e := New(WithStore(memory.New()))
	if err := e.Health(context.Background()); err == nil {
		t.Error("Health on an unregistered extension should fail")
	}
}

func TestJournalOpensLevelDB(t *testing.T) {
	e := New(WithOwner(ownerHex), WithJournal(journal.LevelDB, filepath.Join(t.TempDir(), "journal")), WithDisableMigrate())
	e.config = mergeWithDefaults(e.config)

	eng, err := e.buildEngine(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := e.store.(*leveldb.Store); !ok {
		t.Fatalf("store: got %T, want *leveldb.Store", e.store)
	}

	ctx := context.Background()
	if err := eng.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if err := eng.Stop(); err != nil {
		t.Fatal(err)
	}
}

func TestFailedBuildReleasesJournal(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "journal")
	e := New(WithOwner(ownerHex), WithMinimumUSD("0"), WithJournal(journal.LevelDB, dir))
	e.config = mergeWithDefaults(e.config)

	if _, err := e.buildEngine(context.Background()); !errors.Is(err, fundme.ErrInvalidInput) {
		t.Fatalf("buildEngine: got %v, want ErrInvalidInput", err)
	}
	if e.store != nil {
		t.Errorf("store kept after a failed build: %T", e.store)
	}
	if err := e.Health(context.Background()); err == nil {
		t.Error("Health after a failed build should fail")
	}

	// The LevelDB lock must have been released.
	s, err := leveldb.Open(dir)
	if err != nil {
		t.Fatalf("reopen journal: %v", err)
	}
	_ = s.Close()
}

func TestGroveDatabaseJournal(t *testing.T) {
	ctx := context.Background()
	sdb := sqlitedriver.New()
	if err := sdb.Open(ctx, filepath.Join(t.TempDir(), "journal.db")); err != nil {
		t.Fatal(err)
	}
	db, err := grove.Open(sdb)
	if err != nil {
		t.Fatal(err)
	}

	e := New(WithOwner(ownerHex), WithGroveDatabase(""))
	e.config = mergeWithDefaults(e.config)
	e.groveDB = db

	eng, err := e.buildEngine(ctx)
	if err != nil {
		t.Fatal(err)
	}
	e.engine = eng
	if _, ok := e.store.(*sqlite.Store); !ok {
		t.Fatalf("store: got %T, want *sqlite.Store", e.store)
	}

	if err := eng.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := eng.Contribute(ctx, eng.Owner(), types.Ether(1)); err != nil {
		t.Fatal(err)
	}
	got, err := e.store.ListContributions(ctx, eng.ID(), receipt.ListOpts{})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Errorf("journaled contributions: got %d, want 1", len(got))
	}
	if err := e.Health(ctx); err != nil {
		t.Errorf("Health: %v", err)
	}
	if err := eng.Stop(); err != nil {
		t.Fatal(err)
	}
}
