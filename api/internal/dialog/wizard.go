// Package dialog implements the intake wizard for non-emergency police
// reporting: a linear sequence of questions with yes/no confirmation
// steps, incident classification through an external NLU service and
// optional photo corroboration of stolen-item claims.
package dialog

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"nonemergency-bot/api/internal/luis"
	"nonemergency-bot/api/internal/util"
	"nonemergency-bot/api/internal/vision"
	"nonemergency-bot/pkg/metrics"
)

const (
	dobLayout = "02/01/2006"

	retryText = "Sorry, I didn't quite understand you, can you try again?"

	welcomeTitle    = "Cheshire Police 101"
	welcomeText     = "Welcome to Cheshire Police 101 Web Chat"
	welcomeImageURL = "https://www.police.uk/static/img/crest/cheshire.png"
)

var dobPattern = regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`)

// Classifier maps free text to a scored intent plus extracted entities.
type Classifier interface {
	Classify(ctx context.Context, query string) (luis.Result, error)
}

// Fetcher downloads attachment content from a gateway-supplied URL.
type Fetcher func(ctx context.Context, url string) ([]byte, error)

// Wizard advances a Session through the intake sequence. Handle is the
// only entry point: one inbound event in, the replies to send out, the
// session mutated in place. The caller owns loading and saving sessions.
type Wizard struct {
	classifier Classifier
	tagger     vision.Tagger
	fetch      Fetcher
	refs       *RefSequence
	log        *slog.Logger
}

func NewWizard(classifier Classifier, tagger vision.Tagger, fetch Fetcher, refs *RefSequence, log *slog.Logger) *Wizard {
	return &Wizard{
		classifier: classifier,
		tagger:     tagger,
		fetch:      fetch,
		refs:       refs,
		log:        log,
	}
}

func (w *Wizard) Handle(ctx context.Context, sess *Session, in Inbound) []Outbound {
	switch sess.State {
	case StateStart:
		return w.handleStart(sess)
	case StateEmergencyCheck:
		return w.handleEmergencyCheck(sess, in)
	case StateName:
		return w.handleName(sess, in)
	case StateNameConfirm:
		return w.handleNameConfirm(sess, in)
	case StateDateOfBirth:
		return w.handleDateOfBirth(sess, in)
	case StateDateOfBirthConfirm:
		return w.handleDateOfBirthConfirm(sess, in)
	case StateIssue:
		return w.handleIssue(ctx, sess, in)
	case StateIssueConfirm:
		return w.handleIssueConfirm(sess, in)
	case StateTheftPhoto:
		return w.handleTheftPhoto(ctx, sess, in)
	case StateTheftCaptionConfirm:
		return w.handleTheftCaptionConfirm(sess, in)
	case StateAssaultServices:
		return w.handleAssaultServices(sess, in)
	case StateAssaultInjuries:
		return w.handleAssaultInjuries(sess, in)
	case StateAssaultInjuryPhotos:
		return w.handleAssaultInjuryPhotos(sess, in)
	default:
		return []Outbound{reply("This report is closed. Send /start to begin a new one.")}
	}
}

func (w *Wizard) handleStart(sess *Session) []Outbound {
	sess.State = StateEmergencyCheck
	return []Outbound{
		{Card: &Card{Title: welcomeTitle, Text: welcomeText, ImageURL: welcomeImageURL}},
		reply("I am just going to take a few simple details from you so our operator will know how to help you."),
		confirm("Do you require immediate emergency assistance?"),
	}
}

func (w *Wizard) handleEmergencyCheck(sess *Session, in Inbound) []Outbound {
	yes, ok := parseYesNo(in.Text)
	if !ok {
		return []Outbound{confirm(retryText)}
	}
	sess.NeedsEmergencyHelp = yes
	if yes {
		sess.Outcome = OutcomeEmergency
		sess.State = StateResolved
		return []Outbound{reply("Thank you, please hold while we connect you to the emergency line.")}
	}
	sess.State = StateName
	return []Outbound{
		reply("Thank you for confirming that for me."),
		reply("Can you please enter your full name for me?"),
	}
}

func (w *Wizard) handleName(sess *Session, in Inbound) []Outbound {
	name := strings.TrimSpace(in.Text)
	if name == "" {
		return []Outbound{reply("Can you please enter your full name for me?")}
	}
	sess.Name = name
	sess.State = StateNameConfirm
	return []Outbound{confirm(fmt.Sprintf("Your name is %s?", name))}
}

func (w *Wizard) handleNameConfirm(sess *Session, in Inbound) []Outbound {
	yes, ok := parseYesNo(in.Text)
	if !ok {
		return []Outbound{confirm(retryText)}
	}
	if !yes {
		sess.Name = ""
		sess.State = StateName
		return []Outbound{reply("Can you enter your name again please?")}
	}
	sess.State = StateDateOfBirth
	return []Outbound{
		reply(fmt.Sprintf("Hi, %s!", sess.Name)),
		reply("Can you tell me your date of birth please? (dd/MM/yyyy)"),
	}
}

func (w *Wizard) handleDateOfBirth(sess *Session, in Inbound) []Outbound {
	dob, err := ParseDateOfBirth(in.Text)
	if err != nil {
		return []Outbound{reply("Sorry, I didn't understand that date. Could you try again in the format dd/MM/yyyy?")}
	}
	sess.DateOfBirth = dob
	sess.HasDateOfBirth = true
	sess.State = StateDateOfBirthConfirm
	return []Outbound{confirm(fmt.Sprintf("Your date of birth is %s?", dob.Format(dobLayout)))}
}

func (w *Wizard) handleDateOfBirthConfirm(sess *Session, in Inbound) []Outbound {
	yes, ok := parseYesNo(in.Text)
	if !ok {
		return []Outbound{confirm(retryText)}
	}
	if !yes {
		sess.DateOfBirth = time.Time{}
		sess.HasDateOfBirth = false
		sess.State = StateDateOfBirth
		return []Outbound{reply("Can you enter your date of birth again please?")}
	}
	sess.State = StateIssue
	return []Outbound{reply("Can you please briefly describe the issue you have?")}
}

func (w *Wizard) handleIssue(ctx context.Context, sess *Session, in Inbound) []Outbound {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return []Outbound{reply("Can you please briefly describe the issue you have?")}
	}
	res, err := w.classifier.Classify(ctx, text)
	if err != nil {
		w.log.Error("classify failed", "chat_id", sess.ChatID, "correlation_id", sess.CorrelationID, "err", err)
		metrics.APIFailures.WithLabelValues("luis").Inc()
		return []Outbound{reply("Sorry, I'm having trouble understanding that right now. Could you describe the issue again in a moment?")}
	}
	sess.Issue = &res

	cls, known := ClassificationFromIntent(res.TopScoringIntent.Intent)
	if !known {
		return []Outbound{reply("Sorry, could you try describe it differently?")}
	}
	sess.Classification = cls
	sess.State = StateIssueConfirm
	return []Outbound{confirm(fmt.Sprintf(
		"I would categorise that as %s with %.2f%% confidence. Is that correct?",
		cls, res.TopScoringIntent.Score*100,
	))}
}

func (w *Wizard) handleIssueConfirm(sess *Session, in Inbound) []Outbound {
	yes, ok := parseYesNo(in.Text)
	if !ok {
		return []Outbound{confirm(retryText)}
	}
	if !yes {
		sess.Classification = ClassNone
		sess.Issue = nil
		sess.State = StateIssue
		return []Outbound{reply("Sorry, could you try describe it differently?")}
	}

	switch sess.Classification {
	case ClassTheft:
		ent := sess.Issue.FirstEntity(luis.EntityStolenObject)
		if ent == nil || ent.Entity == "" {
			return []Outbound{w.forwardToOperator(sess)}
		}
		sess.StolenObject = ent.Entity
		sess.State = StateTheftPhoto
		return []Outbound{reply(fmt.Sprintf("Please upload a picture of your %s", sess.StolenObject))}

	case ClassAssault:
		if weapon := sess.Issue.FirstEntity(luis.EntityWeapon); weapon != nil {
			sess.State = StateAssaultServices
			return []Outbound{confirm(fmt.Sprintf(
				"I noticed you mentioned there was a %s, do you need additional emergency services?",
				weapon.Entity,
			))}
		}
		sess.State = StateAssaultInjuries
		return []Outbound{confirm("Do you have any injuries from the assault?")}

	default:
		return []Outbound{w.forwardToOperator(sess)}
	}
}

func (w *Wizard) handleTheftPhoto(ctx context.Context, sess *Session, in Inbound) []Outbound {
	if len(in.AttachmentURLs) == 0 {
		return []Outbound{reply(fmt.Sprintf("Please upload a picture of your %s", sess.StolenObject))}
	}
	sess.EvidenceImageURLs = append([]string(nil), in.AttachmentURLs...)

	img, err := w.fetch(ctx, in.AttachmentURLs[0])
	if err != nil {
		w.log.Error("evidence download failed", "chat_id", sess.ChatID, "correlation_id", sess.CorrelationID, "err", err)
		metrics.APIFailures.WithLabelValues("fetch").Inc()
		return []Outbound{reply("Sorry, I couldn't download that picture. Could you upload it again?")}
	}
	sess.EvidenceImageHash = util.SHA256Hex(img)

	analysis, err := w.tagger.Tag(ctx, img)
	if err != nil {
		w.log.Error("evidence tagging failed", "chat_id", sess.ChatID, "correlation_id", sess.CorrelationID,
			"engine", w.tagger.Name(), "err", err)
		metrics.APIFailures.WithLabelValues("vision").Inc()
		return []Outbound{reply("Sorry, I couldn't process that picture right now. Could you upload it again?")}
	}

	if ContainsItemOrPseudonym(analysis.Tags, sess.StolenObject) {
		return []Outbound{w.issueCrimeReference(sess)}
	}
	sess.State = StateTheftCaptionConfirm
	return []Outbound{confirm(fmt.Sprintf(
		"That looks like %s. Are you sure this is a picture of the %s?",
		analysis.Caption, sess.StolenObject,
	))}
}

func (w *Wizard) handleTheftCaptionConfirm(sess *Session, in Inbound) []Outbound {
	yes, ok := parseYesNo(in.Text)
	if !ok {
		return []Outbound{confirm(retryText)}
	}
	if !yes {
		sess.EvidenceImageURLs = nil
		sess.EvidenceImageHash = ""
		sess.State = StateTheftPhoto
		return []Outbound{reply(fmt.Sprintf("Please upload a picture of your %s", sess.StolenObject))}
	}
	return []Outbound{w.forwardToOperator(sess)}
}

func (w *Wizard) handleAssaultServices(sess *Session, in Inbound) []Outbound {
	yes, ok := parseYesNo(in.Text)
	if !ok {
		return []Outbound{confirm(retryText)}
	}
	weapon := ""
	if ent := sess.Issue.FirstEntity(luis.EntityWeapon); ent != nil {
		weapon = ent.Entity
	}
	ack := fmt.Sprintf("Thank you for letting us know there was a %s involved.", weapon)
	if yes {
		ack = fmt.Sprintf("We will notify additional emergency services that there is a %s involved.", weapon)
	}
	sess.State = StateAssaultInjuries
	return []Outbound{
		reply(ack),
		confirm("Do you have any injuries from the assault?"),
	}
}

func (w *Wizard) handleAssaultInjuries(sess *Session, in Inbound) []Outbound {
	yes, ok := parseYesNo(in.Text)
	if !ok {
		return []Outbound{confirm(retryText)}
	}
	if !yes {
		sess.Outcome = OutcomeOperator
		sess.State = StateResolved
		return []Outbound{reply("Thank you, an operator will be in touch about your report.")}
	}
	sess.State = StateAssaultInjuryPhotos
	return []Outbound{reply("Please upload any pictures of your injuries that you have.")}
}

func (w *Wizard) handleAssaultInjuryPhotos(sess *Session, in Inbound) []Outbound {
	if len(in.AttachmentURLs) == 0 {
		return []Outbound{reply("Please upload any pictures of your injuries that you have.")}
	}
	sess.InjuryImageURLs = append(sess.InjuryImageURLs, in.AttachmentURLs...)
	sess.Outcome = OutcomeOperator
	sess.State = StateResolved
	return []Outbound{reply("Thank you for uploading those for me.")}
}

func (w *Wizard) forwardToOperator(sess *Session) Outbound {
	sess.Outcome = OutcomeOperator
	sess.State = StateResolved
	return reply("Thank you for the information. I am forwarding you to another member of staff who can complete your enquiry.")
}

func (w *Wizard) issueCrimeReference(sess *Session) Outbound {
	sess.CrimeRef = w.refs.Next()
	sess.Outcome = OutcomeCrimeRef
	sess.State = StateResolved
	return reply(fmt.Sprintf("Thank you for the information. Your crime reference number is %d", sess.CrimeRef))
}

// ParseDateOfBirth accepts exactly dd/MM/yyyy; anything else is an error.
func ParseDateOfBirth(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if !dobPattern.MatchString(s) {
		return time.Time{}, fmt.Errorf("date %q is not in dd/MM/yyyy", s)
	}
	return time.Parse(dobLayout, s)
}

func parseYesNo(s string) (answer, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y", "yeah", "yep", "yup", "sure", "ok", "okay":
		return true, true
	case "no", "n", "nope", "nah":
		return false, true
	default:
		return false, false
	}
}
