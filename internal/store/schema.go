package store

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
    name TEXT PRIMARY KEY,
    created_at TIMESTAMP NOT NULL,
    description TEXT,
    package_count INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS snapshot_packages (
    snapshot_name TEXT NOT NULL,
    package_name TEXT NOT NULL,
    version TEXT NOT NULL,
    architecture TEXT NOT NULL,
    PRIMARY KEY (snapshot_name, package_name, version, architecture),
    FOREIGN KEY (snapshot_name) REFERENCES snapshots(name) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS scan_records (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    package_name TEXT NOT NULL,
    package_version TEXT NOT NULL,
    scanned_at TIMESTAMP NOT NULL,
    status TEXT NOT NULL,
    cve_count INTEGER NOT NULL DEFAULT 0,
    cvss_max REAL NOT NULL DEFAULT 0,
    scanner TEXT,
    source_file TEXT
);

CREATE INDEX IF NOT EXISTS idx_snapshot_packages_name ON snapshot_packages(snapshot_name, package_name);
CREATE INDEX IF NOT EXISTS idx_scan_records_name ON scan_records(package_name);
CREATE INDEX IF NOT EXISTS idx_scan_records_name_version ON scan_records(package_name, package_version);
CREATE UNIQUE INDEX IF NOT EXISTS idx_scan_records_event ON scan_records(package_name, package_version, scanned_at, scanner);
`
