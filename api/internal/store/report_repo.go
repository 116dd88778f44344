package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"nonemergency-bot/api/internal/dialog"
)

var ErrNotFound = sql.ErrNoRows

// ReportRepo archives finished intakes. Insert-only from the bot's point
// of view; operators read the table through their own tooling.
type ReportRepo struct{ DB *sql.DB }

func NewReportRepo(db *sql.DB) *ReportRepo { return &ReportRepo{DB: db} }

type Report struct {
	ID            int64
	CreatedAt     time.Time
	ChatID        int64
	CorrelationID string

	Name           string
	DateOfBirth    *time.Time
	Classification string
	StolenObject   string

	EvidenceImageURLs []string
	EvidenceImageHash string
	InjuryImageURLs   []string

	Outcome  string
	CrimeRef *int64
}

// FromSession builds the archive row for a resolved session.
func FromSession(sess *dialog.Session) Report {
	r := Report{
		ChatID:            sess.ChatID,
		CorrelationID:     sess.CorrelationID,
		Name:              sess.Name,
		Classification:    sess.Classification.String(),
		StolenObject:      sess.StolenObject,
		EvidenceImageURLs: sess.EvidenceImageURLs,
		EvidenceImageHash: sess.EvidenceImageHash,
		InjuryImageURLs:   sess.InjuryImageURLs,
		Outcome:           string(sess.Outcome),
	}
	if sess.HasDateOfBirth {
		dob := sess.DateOfBirth
		r.DateOfBirth = &dob
	}
	if sess.Outcome == dialog.OutcomeCrimeRef {
		ref := sess.CrimeRef
		r.CrimeRef = &ref
	}
	return r
}

func (r *ReportRepo) Insert(ctx context.Context, rep Report) error {
	evidence, _ := json.Marshal(rep.EvidenceImageURLs)
	injuries, _ := json.Marshal(rep.InjuryImageURLs)
	const q = `
insert into reports (
  chat_id, correlation_id, name, date_of_birth, classification,
  stolen_object, evidence_urls, evidence_hash, injury_urls,
  outcome, crime_ref
) values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`
	_, err := r.DB.ExecContext(ctx, q,
		rep.ChatID, rep.CorrelationID, rep.Name, rep.DateOfBirth, rep.Classification,
		rep.StolenObject, evidence, rep.EvidenceImageHash, injuries,
		rep.Outcome, rep.CrimeRef,
	)
	return err
}

// FindByCrimeRef looks a report up by its issued reference number.
func (r *ReportRepo) FindByCrimeRef(ctx context.Context, ref int64) (*Report, error) {
	const q = `
select id, created_at, chat_id, correlation_id,
       coalesce(name,'') as name, date_of_birth,
       coalesce(classification,'') as classification,
       coalesce(stolen_object,'') as stolen_object,
       evidence_urls, coalesce(evidence_hash,'') as evidence_hash, injury_urls,
       outcome, crime_ref
from reports
where crime_ref = $1
order by created_at desc
limit 1`
	return r.scanOne(r.DB.QueryRowContext(ctx, q, ref))
}

// LastCrimeRef returns the highest reference number issued so far, so the
// in-process sequence can resume past it after a restart. ok is false
// when no reference has ever been issued.
func (r *ReportRepo) LastCrimeRef(ctx context.Context) (ref int64, ok bool, err error) {
	const q = `select max(crime_ref) from reports where crime_ref is not null`
	var v sql.NullInt64
	if err := r.DB.QueryRowContext(ctx, q).Scan(&v); err != nil {
		return 0, false, err
	}
	return v.Int64, v.Valid, nil
}

func (r *ReportRepo) scanOne(row *sql.Row) (*Report, error) {
	var (
		rep      Report
		dob      sql.NullTime
		crimeRef sql.NullInt64
		evidence []byte
		injuries []byte
	)
	if err := row.Scan(&rep.ID, &rep.CreatedAt, &rep.ChatID, &rep.CorrelationID,
		&rep.Name, &dob, &rep.Classification, &rep.StolenObject,
		&evidence, &rep.EvidenceImageHash, &injuries,
		&rep.Outcome, &crimeRef); err != nil {
		return nil, err
	}
	if dob.Valid {
		t := dob.Time
		rep.DateOfBirth = &t
	}
	if crimeRef.Valid {
		v := crimeRef.Int64
		rep.CrimeRef = &v
	}
	_ = json.Unmarshal(evidence, &rep.EvidenceImageURLs)
	_ = json.Unmarshal(injuries, &rep.InjuryImageURLs)
	return &rep, nil
}
