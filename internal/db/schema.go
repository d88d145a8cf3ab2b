package db

// Schema is the DDL for the bilary database.
const Schema = `
CREATE TABLE IF NOT EXISTS accounts (
    id              TEXT PRIMARY KEY,
    email           TEXT NOT NULL UNIQUE,
    imap_server     TEXT NOT NULL,
    imap_port       INTEGER NOT NULL DEFAULT 993,
    password        TEXT,
    refresh_token   TEXT,
    created_at      TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS invoices (
    id              TEXT PRIMARY KEY,
    account_id      TEXT NOT NULL,
    sender_email    TEXT NOT NULL,
    sender_name     TEXT,
    subject         TEXT,
    received_at     TEXT NOT NULL,
    category        TEXT NOT NULL DEFAULT 'Other',
    file_path       TEXT,
    file_url        TEXT,
    is_private      INTEGER NOT NULL DEFAULT 0,
    created_at      TEXT NOT NULL,
    UNIQUE(account_id, sender_email, received_at),
    FOREIGN KEY (account_id) REFERENCES accounts(id)
);

CREATE TABLE IF NOT EXISTS attachments (
    id              TEXT PRIMARY KEY,
    invoice_id      TEXT NOT NULL,
    filename        TEXT NOT NULL,
    file_size       INTEGER,
    media_type      TEXT,
    created_at      TEXT NOT NULL,
    FOREIGN KEY (invoice_id) REFERENCES invoices(id)
);

CREATE INDEX IF NOT EXISTS idx_invoices_account ON invoices(account_id);
CREATE INDEX IF NOT EXISTS idx_invoices_received ON invoices(received_at DESC);
CREATE INDEX IF NOT EXISTS idx_invoices_category ON invoices(category);
CREATE INDEX IF NOT EXISTS idx_attachments_invoice ON attachments(invoice_id);
`
