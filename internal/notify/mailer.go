// Package notify composes and delivers the single outcome message of a run.
package notify

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/temirov/gitbackup/internal/backup"
)

const (
	subjectTemplateConstant      = "[Azure DevOps Backup] %s - %s @ %s"
	subjectSuccessLabelConstant  = "Success"
	subjectFailureLabelConstant  = "Failed"
	bodySuccessHeadlineConstant  = "Backup completed successfully."
	bodyFailureHeadlineConstant  = "Backup FAILED."
	bodyTimestampLineTemplate    = "Timestamp: %s"
	bodyOrganizationLineTemplate = "Organization: %s"
	bodyTotalReposLineTemplate   = "Total repos: %d"
	bodyDryRunLineConstant       = "Mode: dry run"
	bodyDestinationsLineTemplate = "Destinations: %s"
	bodyNoDestinationsConstant   = "none"
	bodyErrorHeadingConstant     = "Error details:"
	bodyLineSeparatorConstant    = "\n"
	destinationsJoinSeparator    = ", "

	mailerLoggerRequiredMessageConstant = "mail notifier logger not configured"
	mailNotConfiguredMessageConstant    = "mail delivery not configured"
	messageCompositionErrorTemplate     = "unable to compose notification message: %w"
	clientCreationErrorTemplate         = "unable to create mail client: %w"
	deliveryErrorTemplate               = "unable to deliver notification: %w"
	manifestAttachedMessageConstant     = "manifest attached to notification"
	manifestMissingMessageConstant      = "manifest file absent, sending notification without attachment"
	notificationSentMessageConstant     = "outcome notification sent"

	logFieldManifestConstant   = "manifest"
	logFieldRecipientsConstant = "recipients"
)

// Construction sentinels.
var (
	// ErrMailerLoggerNotConfigured indicates the notifier was built without a logger.
	ErrMailerLoggerNotConfigured = errors.New(mailerLoggerRequiredMessageConstant)
	// ErrMailNotConfigured indicates delivery settings are incomplete; callers log and continue.
	ErrMailNotConfigured = errors.New(mailNotConfiguredMessageConstant)
)

// Settings holds SMTP delivery configuration.
type Settings struct {
	Host        string
	Port        int
	Username    string
	Password    string
	FromAddress string
	ToAddresses []string
}

func (settings Settings) complete() bool {
	return len(settings.Host) > 0 && len(settings.FromAddress) > 0 && len(settings.ToAddresses) > 0
}

// MailNotifier delivers the run outcome over SMTP with the manifest attached
// when it exists on disk at send time.
type MailNotifier struct {
	logger   *zap.Logger
	settings Settings
}

// NewMailNotifier constructs a notifier from delivery settings.
func NewMailNotifier(logger *zap.Logger, settings Settings) (*MailNotifier, error) {
	if logger == nil {
		return nil, ErrMailerLoggerNotConfigured
	}
	return &MailNotifier{logger: logger, settings: settings}, nil
}

// Notify composes and sends exactly one outcome message. Delivery problems are
// returned for logging; they never affect the run outcome and are not retried.
func (notifier *MailNotifier) Notify(executionContext context.Context, summary backup.RunSummary) error {
	if !notifier.settings.complete() {
		return ErrMailNotConfigured
	}

	message := mail.NewMsg()
	if fromError := message.From(notifier.settings.FromAddress); fromError != nil {
		return fmt.Errorf(messageCompositionErrorTemplate, fromError)
	}
	if toError := message.To(notifier.settings.ToAddresses...); toError != nil {
		return fmt.Errorf(messageCompositionErrorTemplate, toError)
	}

	message.Subject(ComposeSubject(summary))
	message.SetBodyString(mail.TypeTextPlain, ComposeBody(summary))

	if _, statError := os.Stat(summary.ManifestPath); statError == nil {
		message.AttachFile(summary.ManifestPath)
		notifier.logger.Info(manifestAttachedMessageConstant, zap.String(logFieldManifestConstant, summary.ManifestPath))
	} else {
		notifier.logger.Warn(manifestMissingMessageConstant, zap.String(logFieldManifestConstant, summary.ManifestPath))
	}

	clientOptions := []mail.Option{
		mail.WithPort(notifier.settings.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if len(notifier.settings.Username) > 0 {
		clientOptions = append(
			clientOptions,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(notifier.settings.Username),
			mail.WithPassword(notifier.settings.Password),
		)
	}

	mailClient, clientError := mail.NewClient(notifier.settings.Host, clientOptions...)
	if clientError != nil {
		return fmt.Errorf(clientCreationErrorTemplate, clientError)
	}

	if deliveryError := mailClient.DialAndSendWithContext(executionContext, message); deliveryError != nil {
		return fmt.Errorf(deliveryErrorTemplate, deliveryError)
	}

	notifier.logger.Info(notificationSentMessageConstant, zap.Strings(logFieldRecipientsConstant, notifier.settings.ToAddresses))

	return nil
}

// ComposeSubject renders the notification subject line.
func ComposeSubject(summary backup.RunSummary) string {
	outcomeLabel := subjectSuccessLabelConstant
	if !summary.Outcome.Succeeded {
		outcomeLabel = subjectFailureLabelConstant
	}
	return fmt.Sprintf(subjectTemplateConstant, outcomeLabel, summary.Organization, summary.Timestamp)
}

// ComposeBody renders the human readable notification body.
func ComposeBody(summary backup.RunSummary) string {
	headline := bodySuccessHeadlineConstant
	if !summary.Outcome.Succeeded {
		headline = bodyFailureHeadlineConstant
	}

	destinationsLabel := bodyNoDestinationsConstant
	if len(summary.DestinationNames) > 0 {
		destinationsLabel = strings.Join(summary.DestinationNames, destinationsJoinSeparator)
	}

	bodyLines := []string{
		headline,
		fmt.Sprintf(bodyTimestampLineTemplate, summary.Timestamp),
		fmt.Sprintf(bodyOrganizationLineTemplate, summary.Organization),
		fmt.Sprintf(bodyTotalReposLineTemplate, summary.AttemptedRepositories),
		fmt.Sprintf(bodyDestinationsLineTemplate, destinationsLabel),
	}

	if summary.DryRun {
		bodyLines = append(bodyLines, bodyDryRunLineConstant)
	}

	if !summary.Outcome.Succeeded && len(summary.Outcome.ErrorDetail) > 0 {
		bodyLines = append(bodyLines, "", bodyErrorHeadingConstant, summary.Outcome.ErrorDetail)
	}

	return strings.Join(bodyLines, bodyLineSeparatorConstant)
}
