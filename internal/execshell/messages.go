package execshell

import (
	"fmt"
	"strings"
)

type messageStage int

const (
	messageStageStart messageStage = iota
	messageStageSuccess
	messageStageFailure
	messageStageExecutionFailure
)

const (
	genericStartTemplateConstant            = "Running %s"
	genericSuccessTemplateConstant          = "Completed %s"
	genericFailureTemplateConstant          = "%s failed with exit code %d%s"
	genericExecutionFailureTemplateConstant = "%s failed: %s"
	commandArgumentsJoinSeparatorConstant   = " "
	messageStandardErrorTemplateConstant    = ": %s"
	unknownFailureMessageConstant           = "unknown error"

	gitCloneSubcommandNameConstant = "clone"
	gitMirrorFlagConstant          = "--mirror"
	zipRecursiveFlagConstant       = "-r"

	gitCloneStartTemplateConstant            = "Mirroring repository into %s"
	gitCloneSuccessTemplateConstant          = "Mirrored repository into %s"
	gitCloneFailureTemplateConstant          = "Failed to mirror repository into %s (exit code %d%s)"
	gitCloneExecutionFailureTemplateConstant = "Unable to mirror repository into %s: %s"
	zipStartTemplateConstant                 = "Compressing %s into %s"
	zipSuccessTemplateConstant               = "Compressed %s into %s"
	zipFailureTemplateConstant               = "Failed to compress %s into %s (exit code %d%s)"
	zipExecutionFailureTemplateConstant      = "Unable to compress %s into %s: %s"

	fallbackUnknownValueLabelConstant = "unknown"
)

// CommandMessageFormatter renders human readable descriptions of shell commands.
type CommandMessageFormatter struct{}

// DescribeCommand builds a message for the supplied command and lifecycle stage.
func (formatter CommandMessageFormatter) DescribeCommand(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	switch command.Name {
	case CommandGit:
		if containsArgument(command.Details.Arguments, gitCloneSubcommandNameConstant) {
			return formatter.describeGitCloneMessage(command, result, failure, stage)
		}
	case CommandZip:
		return formatter.describeZipMessage(command, result, failure, stage)
	}
	return formatter.buildGenericMessage(command, result, failure, stage)
}

func (formatter CommandMessageFormatter) describeGitCloneMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	cloneDestination := formatter.ensureValue(formatter.lastArgument(command.Details.Arguments))
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(gitCloneStartTemplateConstant, cloneDestination)
	case messageStageSuccess:
		return fmt.Sprintf(gitCloneSuccessTemplateConstant, cloneDestination)
	case messageStageFailure:
		return fmt.Sprintf(gitCloneFailureTemplateConstant, cloneDestination, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	default:
		return fmt.Sprintf(gitCloneExecutionFailureTemplateConstant, cloneDestination, formatter.describeFailure(failure))
	}
}

func (formatter CommandMessageFormatter) describeZipMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	archivePath := formatter.ensureValue(formatter.argumentAfterFlag(command.Details.Arguments, zipRecursiveFlagConstant))
	sourcePath := formatter.ensureValue(formatter.lastArgument(command.Details.Arguments))
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(zipStartTemplateConstant, sourcePath, archivePath)
	case messageStageSuccess:
		return fmt.Sprintf(zipSuccessTemplateConstant, sourcePath, archivePath)
	case messageStageFailure:
		return fmt.Sprintf(zipFailureTemplateConstant, sourcePath, archivePath, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	default:
		return fmt.Sprintf(zipExecutionFailureTemplateConstant, sourcePath, archivePath, formatter.describeFailure(failure))
	}
}

func (formatter CommandMessageFormatter) buildGenericMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	commandLabel := strings.TrimSpace(strings.Join(append([]string{string(command.Name)}, command.Details.Arguments...), commandArgumentsJoinSeparatorConstant))
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(genericStartTemplateConstant, commandLabel)
	case messageStageSuccess:
		return fmt.Sprintf(genericSuccessTemplateConstant, commandLabel)
	case messageStageFailure:
		return fmt.Sprintf(genericFailureTemplateConstant, commandLabel, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	default:
		return fmt.Sprintf(genericExecutionFailureTemplateConstant, commandLabel, formatter.describeFailure(failure))
	}
}

func (formatter CommandMessageFormatter) formatStandardErrorSuffix(standardError string) string {
	trimmedStandardError := strings.TrimSpace(standardError)
	if len(trimmedStandardError) == 0 {
		return ""
	}
	return fmt.Sprintf(messageStandardErrorTemplateConstant, trimmedStandardError)
}

func (formatter CommandMessageFormatter) describeFailure(failure error) string {
	if failure == nil {
		return unknownFailureMessageConstant
	}
	return failure.Error()
}

func (formatter CommandMessageFormatter) lastArgument(arguments []string) string {
	if len(arguments) == 0 {
		return ""
	}
	return arguments[len(arguments)-1]
}

func (formatter CommandMessageFormatter) argumentAfterFlag(arguments []string, flag string) string {
	for argumentIndex, argumentValue := range arguments {
		if argumentValue == flag && argumentIndex+1 < len(arguments) {
			return arguments[argumentIndex+1]
		}
	}
	return ""
}

func (formatter CommandMessageFormatter) ensureValue(value string) string {
	if len(strings.TrimSpace(value)) == 0 {
		return fallbackUnknownValueLabelConstant
	}
	return value
}

func containsArgument(arguments []string, value string) bool {
	for _, argumentValue := range arguments {
		if argumentValue == value {
			return true
		}
	}
	return false
}
