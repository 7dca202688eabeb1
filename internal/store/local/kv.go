package local

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// The key namespace mirrors the original deployment, where several apps
// shared one storage origin and collided on bare keys. New writes always use
// the prefix; openKV migrates values left under the legacy bare keys once.
const (
	keyPrefix = "wudai_v2_"

	keyGraphData    = keyPrefix + "graphData"
	keyComments     = keyPrefix + "comments"
	keyAdminHash    = keyPrefix + "adminPasswordHash"
	keyClientID     = keyPrefix + "userId"
	keyLastBackup   = keyPrefix + "lastBackupTime"
	keyDeleteCountP = keyPrefix + "deleteCount_" // + client id
	keyLikedP       = keyPrefix + "liked_"       // + comment id + "_" + client id
)

var legacyMigrations = map[string]string{
	keyClientID:  "userId",
	keyGraphData: "graphData",
	keyComments:  "comments",
	keyAdminHash: "adminPasswordHash",
}

const schema = `
CREATE TABLE IF NOT EXISTS kv (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// KV is the durable key-value storage for the local variant, one sqlite file
// holding the graph blob, comment blob, counters, like flags and admin hash.
type KV struct {
	db *sql.DB
}

// OpenKV opens (creating if needed) the sqlite file and runs the one-time
// legacy key migration.
func OpenKV(path string) (*KV, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite at '%s': %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create kv table: %w", err)
	}

	kv := &KV{db: db}
	if err := kv.migrateLegacyKeys(); err != nil {
		db.Close()
		return nil, err
	}
	return kv, nil
}

// migrateLegacyKeys copies values stored under the old unprefixed keys into
// the namespaced ones, only where the namespaced key is still absent.
func (k *KV) migrateLegacyKeys() error {
	for newKey, legacyKey := range legacyMigrations {
		if _, ok, err := k.Get(newKey); err != nil {
			return err
		} else if ok {
			continue
		}
		val, ok, err := k.Get(legacyKey)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if err := k.Set(newKey, val); err != nil {
			return fmt.Errorf("failed to migrate legacy key '%s': %w", legacyKey, err)
		}
	}
	return nil
}

func (k *KV) Get(key string) (string, bool, error) {
	var val string
	err := k.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&val)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read key '%s': %w", key, err)
	}
	return val, true, nil
}

func (k *KV) Set(key, value string) error {
	_, err := k.db.Exec(
		`INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("failed to write key '%s': %w", key, err)
	}
	return nil
}

func (k *KV) Delete(key string) error {
	if _, err := k.db.Exec(`DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete key '%s': %w", key, err)
	}
	return nil
}

func (k *KV) Close() error {
	return k.db.Close()
}

// Admin credential storage. The password hash shares the namespaced blob
// keys; the sync-variant admin key keeps the bare names the original used.
const (
	keyAdminSyncKey = "WUDAI_ADMIN_KEY"
	keyAdminSyncOK  = "WUDAI_ADMIN_OK"
)

func (k *KV) LoadAdminHash() (string, bool, error) { return k.Get(keyAdminHash) }

func (k *KV) StoreAdminHash(hash string) error { return k.Set(keyAdminHash, hash) }

// LoadAdminKey returns the cached sync-backend admin key and whether it was
// last verified successfully.
func (k *KV) LoadAdminKey() (key string, verified bool, err error) {
	key, _, err = k.Get(keyAdminSyncKey)
	if err != nil {
		return "", false, err
	}
	ok, _, err := k.Get(keyAdminSyncOK)
	if err != nil {
		return "", false, err
	}
	return key, ok == "1", nil
}

func (k *KV) StoreAdminKey(key string, verified bool) error {
	if err := k.Set(keyAdminSyncKey, key); err != nil {
		return err
	}
	flag := "0"
	if verified {
		flag = "1"
	}
	return k.Set(keyAdminSyncOK, flag)
}

func (k *KV) ClearAdminKey() error {
	if err := k.Delete(keyAdminSyncKey); err != nil {
		return err
	}
	return k.Delete(keyAdminSyncOK)
}

// DeleteCounters adapts the KV to the rate limiter's persistent counter
// store, one key per client.
type DeleteCounters struct {
	KV *KV
}

func (d DeleteCounters) TotalDeletes(clientID string) (int, error) {
	val, ok, err := d.KV.Get(keyDeleteCountP + clientID)
	if err != nil || !ok {
		return 0, err
	}
	var n int
	if _, err := fmt.Sscanf(val, "%d", &n); err != nil {
		return 0, nil
	}
	return n, nil
}

func (d DeleteCounters) SetTotalDeletes(clientID string, n int) error {
	return d.KV.Set(keyDeleteCountP+clientID, fmt.Sprintf("%d", n))
}
