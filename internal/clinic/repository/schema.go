package repository

// Migrations returns the clinic schema as ordered, idempotent statements.
// Tables are created unqualified so they land in the connection's search_path.
func Migrations() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS users (
			id            BIGSERIAL PRIMARY KEY,
			email         VARCHAR(255) NOT NULL,
			name          VARCHAR(255) NOT NULL,
			role          VARCHAR(50) NOT NULL DEFAULT 'staff',
			password_hash VARCHAR(255) NOT NULL,
			created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT users_email_key UNIQUE (email)
		)`,

		`CREATE TABLE IF NOT EXISTS patients (
			id         BIGSERIAL PRIMARY KEY,
			name       VARCHAR(255) NOT NULL,
			nic        VARCHAR(20),
			telephone  VARCHAR(20) NOT NULL,
			birth_date DATE,
			address    TEXT,
			height     DOUBLE PRECISION,
			weight     DOUBLE PRECISION,
			gender     VARCHAR(10) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_patients_name ON patients (name)`,

		`CREATE TABLE IF NOT EXISTS drugs (
			id   BIGSERIAL PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			CONSTRAINT drugs_name_key UNIQUE (name)
		)`,

		`CREATE TABLE IF NOT EXISTS drug_brands (
			id          BIGSERIAL PRIMARY KEY,
			name        VARCHAR(255) NOT NULL,
			description TEXT
		)`,

		`CREATE TABLE IF NOT EXISTS unit_concentrations (
			id            BIGSERIAL PRIMARY KEY,
			concentration DOUBLE PRECISION NOT NULL,
			CONSTRAINT unit_concentrations_concentration_key UNIQUE (concentration)
		)`,

		`CREATE TABLE IF NOT EXISTS suppliers (
			id      BIGSERIAL PRIMARY KEY,
			name    VARCHAR(255) NOT NULL,
			contact VARCHAR(255) NOT NULL DEFAULT 'N/A',
			CONSTRAINT suppliers_name_key UNIQUE (name)
		)`,

		`CREATE TABLE IF NOT EXISTS batches (
			id                    BIGSERIAL PRIMARY KEY,
			number                VARCHAR(100) NOT NULL,
			drug_id               BIGINT NOT NULL REFERENCES drugs(id),
			drug_brand_id         BIGINT NOT NULL REFERENCES drug_brands(id),
			unit_concentration_id BIGINT NOT NULL REFERENCES unit_concentrations(id),
			supplier_id           BIGINT NOT NULL REFERENCES suppliers(id),
			type                  VARCHAR(20) NOT NULL,
			full_amount           DOUBLE PRECISION NOT NULL,
			remaining_quantity    DOUBLE PRECISION NOT NULL,
			expiry                TIMESTAMPTZ NOT NULL,
			stock_date            TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			retail_price          NUMERIC(12,2) NOT NULL,
			wholesale_price       NUMERIC(12,2) NOT NULL,
			status                VARCHAR(20) NOT NULL DEFAULT 'AVAILABLE',
			CONSTRAINT batches_remaining_quantity_check CHECK (remaining_quantity >= 0 AND remaining_quantity <= full_amount),
			CONSTRAINT batches_status_valid CHECK (status IN ('AVAILABLE', 'COMPLETED', 'EXPIRED', 'DISPOSED', 'QUALITY_FAILED'))
		)`,
		`CREATE INDEX IF NOT EXISTS idx_batches_drug ON batches (drug_id, drug_brand_id)`,
		`CREATE INDEX IF NOT EXISTS idx_batches_status ON batches (status)`,

		`CREATE TABLE IF NOT EXISTS buffer_levels (
			id                    BIGSERIAL PRIMARY KEY,
			drug_id               BIGINT NOT NULL REFERENCES drugs(id),
			type                  VARCHAR(20) NOT NULL,
			unit_concentration_id BIGINT NOT NULL REFERENCES unit_concentrations(id),
			buffer_amount         DOUBLE PRECISION NOT NULL DEFAULT 0,
			CONSTRAINT buffer_levels_key UNIQUE (drug_id, type, unit_concentration_id),
			CONSTRAINT buffer_levels_buffer_amount_check CHECK (buffer_amount >= 0)
		)`,

		`CREATE TABLE IF NOT EXISTS batch_history (
			id                    BIGSERIAL PRIMARY KEY,
			drug_id               BIGINT NOT NULL REFERENCES drugs(id),
			drug_brand_id         BIGINT NOT NULL REFERENCES drug_brands(id),
			type                  VARCHAR(20) NOT NULL,
			unit_concentration_id BIGINT NOT NULL REFERENCES unit_concentrations(id),
			batch_id              BIGINT NOT NULL REFERENCES batches(id),
			CONSTRAINT batch_history_key UNIQUE (drug_id, drug_brand_id, type, unit_concentration_id)
		)`,

		`CREATE TABLE IF NOT EXISTS prescriptions (
			id                  BIGSERIAL PRIMARY KEY,
			patient_id          BIGINT NOT NULL REFERENCES patients(id),
			time                TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			status              VARCHAR(20) NOT NULL DEFAULT 'PENDING',
			extra_doctor_charge NUMERIC(12,2) NOT NULL DEFAULT 0
		)`,

		`CREATE TABLE IF NOT EXISTS issues (
			id                    BIGSERIAL PRIMARY KEY,
			prescription_id       BIGINT NOT NULL REFERENCES prescriptions(id) ON DELETE CASCADE,
			drug_id               BIGINT NOT NULL REFERENCES drugs(id),
			brand_id              BIGINT NOT NULL REFERENCES drug_brands(id),
			unit_concentration_id BIGINT NOT NULL REFERENCES unit_concentrations(id),
			type                  VARCHAR(20) NOT NULL,
			strategy              VARCHAR(50) NOT NULL,
			dose                  DOUBLE PRECISION NOT NULL,
			quantity              DOUBLE PRECISION NOT NULL,
			batch_id              BIGINT REFERENCES batches(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_issues_prescription ON issues (prescription_id)`,
		`CREATE INDEX IF NOT EXISTS idx_issues_batch ON issues (batch_id)`,

		`CREATE TABLE IF NOT EXISTS bills (
			id                BIGSERIAL PRIMARY KEY,
			prescription_id   BIGINT NOT NULL REFERENCES prescriptions(id),
			doctor_charge     NUMERIC(12,2) NOT NULL DEFAULT 0,
			dispensary_charge NUMERIC(12,2) NOT NULL DEFAULT 0,
			medicines_charge  NUMERIC(12,2) NOT NULL DEFAULT 0,
			CONSTRAINT bills_prescription_id_key UNIQUE (prescription_id)
		)`,

		`CREATE TABLE IF NOT EXISTS charges (
			id    BIGSERIAL PRIMARY KEY,
			name  VARCHAR(100) NOT NULL,
			type  VARCHAR(20) NOT NULL,
			value NUMERIC(12,2) NOT NULL DEFAULT 0,
			CONSTRAINT charges_name_key UNIQUE (name),
			CONSTRAINT charges_charge_value_check CHECK (value >= 0)
		)`,
		`INSERT INTO charges (name, type, value) VALUES ('DOCTOR', 'DOCTOR', 0), ('DISPENSARY', 'DISPENSARY', 0)
			ON CONFLICT (name) DO NOTHING`,
	}
}
