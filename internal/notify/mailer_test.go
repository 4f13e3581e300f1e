package notify_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/gitbackup/internal/backup"
	"github.com/temirov/gitbackup/internal/notify"
)

const (
	mailTestOrganizationConstant = "Contoso"
	mailTestTimestampConstant    = "20260102-1504"
	mailTestHostConstant         = "smtp.example.com"
	mailTestFromAddressConstant  = "backup@example.com"
	mailTestToAddressConstant    = "ops@example.com"
	mailTestErrorDetailConstant  = "no projects found"
)

func successfulRunSummary() backup.RunSummary {
	return backup.RunSummary{
		Organization:          mailTestOrganizationConstant,
		Timestamp:             mailTestTimestampConstant,
		Outcome:               backup.RunOutcome{Succeeded: true},
		AttemptedRepositories: 3,
		DestinationNames:      []string{"azure-blob", "aws-s3"},
	}
}

func failedRunSummary() backup.RunSummary {
	return backup.RunSummary{
		Organization:          mailTestOrganizationConstant,
		Timestamp:             mailTestTimestampConstant,
		Outcome:               backup.RunOutcome{Succeeded: false, ErrorDetail: mailTestErrorDetailConstant},
		AttemptedRepositories: 0,
	}
}

func TestNewMailNotifierRequiresLogger(testInstance *testing.T) {
	notifier, creationError := notify.NewMailNotifier(nil, notify.Settings{})
	require.Nil(testInstance, notifier)
	require.ErrorIs(testInstance, creationError, notify.ErrMailerLoggerNotConfigured)
}

func TestNotifyWithIncompleteSettings(testInstance *testing.T) {
	testCases := []struct {
		name     string
		settings notify.Settings
	}{
		{
			name:     "empty_settings",
			settings: notify.Settings{},
		},
		{
			name: "missing_host",
			settings: notify.Settings{
				FromAddress: mailTestFromAddressConstant,
				ToAddresses: []string{mailTestToAddressConstant},
			},
		},
		{
			name: "missing_sender",
			settings: notify.Settings{
				Host:        mailTestHostConstant,
				ToAddresses: []string{mailTestToAddressConstant},
			},
		},
		{
			name: "missing_recipients",
			settings: notify.Settings{
				Host:        mailTestHostConstant,
				FromAddress: mailTestFromAddressConstant,
			},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			notifier, creationError := notify.NewMailNotifier(zap.NewNop(), testCase.settings)
			require.NoError(testInstance, creationError)

			notifyError := notifier.Notify(context.Background(), successfulRunSummary())
			require.ErrorIs(testInstance, notifyError, notify.ErrMailNotConfigured)
		})
	}
}

func TestComposeSubject(testInstance *testing.T) {
	testCases := []struct {
		name            string
		summary         backup.RunSummary
		expectedSubject string
	}{
		{
			name:            "success",
			summary:         successfulRunSummary(),
			expectedSubject: "[Azure DevOps Backup] Success - Contoso @ 20260102-1504",
		},
		{
			name:            "failure",
			summary:         failedRunSummary(),
			expectedSubject: "[Azure DevOps Backup] Failed - Contoso @ 20260102-1504",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expectedSubject, notify.ComposeSubject(testCase.summary))
		})
	}
}

func TestComposeBodySuccess(testInstance *testing.T) {
	body := notify.ComposeBody(successfulRunSummary())

	require.Contains(testInstance, body, "Backup completed successfully.")
	require.Contains(testInstance, body, "Timestamp: 20260102-1504")
	require.Contains(testInstance, body, "Organization: Contoso")
	require.Contains(testInstance, body, "Total repos: 3")
	require.Contains(testInstance, body, "Destinations: azure-blob, aws-s3")
	require.NotContains(testInstance, body, "Mode: dry run")
	require.NotContains(testInstance, body, "Error details:")
}

func TestComposeBodyFailureIncludesErrorDetails(testInstance *testing.T) {
	body := notify.ComposeBody(failedRunSummary())

	require.Contains(testInstance, body, "Backup FAILED.")
	require.Contains(testInstance, body, "Destinations: none")
	require.Contains(testInstance, body, "Error details:")
	require.Contains(testInstance, body, mailTestErrorDetailConstant)
}

func TestComposeBodyDryRunAnnotated(testInstance *testing.T) {
	summary := successfulRunSummary()
	summary.DryRun = true

	require.Contains(testInstance, notify.ComposeBody(summary), "Mode: dry run")
}
