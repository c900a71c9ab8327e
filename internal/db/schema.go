package db

const schemaSQL = `
-- ===========================================================================
-- DEVICES (persisted configuration, reloaded at startup)
-- ===========================================================================

CREATE TABLE IF NOT EXISTS devices (
  device_id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  host TEXT NOT NULL,
  port INTEGER NOT NULL,
  standby_schedule TEXT,
  created_at TEXT NOT NULL DEFAULT (datetime('now')),
  updated_at TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_devices_host_port ON devices(host, port);

-- ===========================================================================
-- STATE TRANSITIONS (field-level change log written by the pollers)
-- ===========================================================================

CREATE TABLE IF NOT EXISTS state_transitions (
  transition_id TEXT PRIMARY KEY,
  device_id TEXT NOT NULL,
  field TEXT NOT NULL,
  old_value TEXT,
  new_value TEXT,
  occurred_at TEXT NOT NULL,
  FOREIGN KEY (device_id) REFERENCES devices(device_id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_transitions_device ON state_transitions(device_id, occurred_at);
CREATE INDEX IF NOT EXISTS idx_transitions_occurred ON state_transitions(occurred_at);
`
