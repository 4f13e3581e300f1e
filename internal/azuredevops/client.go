package azuredevops

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/temirov/gitbackup/internal/backup"
)

const (
	organizationBaseURLTemplateConstant = "https://dev.azure.com/%s"
	projectsEndpointTemplateConstant    = "%s/_apis/projects?api-version=%s"
	repositoriesEndpointTemplate        = "%s/%s/_apis/git/repositories?api-version=%s"
	apiVersionConstant                  = "7.0"
	basicAuthUsernameConstant           = ""
	defaultRequestTimeoutConstant       = 30 * time.Second

	clientLoggerRequiredMessageConstant     = "catalog client logger not configured"
	organizationRequiredMessageConstant     = "catalog client organization not configured"
	credentialRequiredMessageConstant       = "catalog client credential not configured"
	operationErrorTemplateConstant          = "%s operation failed: %s"
	responseDecodingErrorTemplateConstant   = "%s response decoding failed: %s"
	unexpectedStatusErrorTemplateConstant   = "unexpected status %d"
	projectEnumerationFailedMessageConstant = "project enumeration failed"
	repositoryListingFailedMessageConstant  = "repository enumeration failed"
	projectsFilteredMessageConstant         = "projects enumerated after exclusions"

	listProjectsOperationNameConstant     = OperationName("ListProjects")
	listRepositoriesOperationNameConstant = OperationName("ListRepositories")

	logFieldOperationConstant    = "operation"
	logFieldProjectConstant      = "project"
	logFieldProjectCountConstant = "project_count"
)

// OperationName describes a named catalog operation.
type OperationName string

// Construction sentinels.
var (
	// ErrLoggerNotConfigured indicates the client was constructed without a logger.
	ErrLoggerNotConfigured = errors.New(clientLoggerRequiredMessageConstant)
	// ErrOrganizationNotConfigured indicates a missing organization identifier.
	ErrOrganizationNotConfigured = errors.New(organizationRequiredMessageConstant)
	// ErrCredentialNotConfigured indicates a missing personal access token.
	ErrCredentialNotConfigured = errors.New(credentialRequiredMessageConstant)
)

// OperationError wraps transport failures for catalog operations.
type OperationError struct {
	Operation OperationName
	Cause     error
}

// Error describes the operation failure.
func (operationError OperationError) Error() string {
	return fmt.Sprintf(operationErrorTemplateConstant, operationError.Operation, operationError.Cause)
}

// Unwrap exposes the underlying cause.
func (operationError OperationError) Unwrap() error {
	return operationError.Cause
}

// ResponseDecodingError indicates JSON decoding failures.
type ResponseDecodingError struct {
	Operation OperationName
	Cause     error
}

// Error describes the decoding failure.
func (decodingError ResponseDecodingError) Error() string {
	return fmt.Sprintf(responseDecodingErrorTemplateConstant, decodingError.Operation, decodingError.Cause)
}

// Unwrap exposes the underlying JSON error.
func (decodingError ResponseDecodingError) Unwrap() error {
	return decodingError.Cause
}

// ClientConfiguration describes how to reach one organization.
type ClientConfiguration struct {
	Organization        string
	PersonalAccessToken string
	ExcludedProjects    []string
	// BaseURL overrides the organization endpoint; tests point it at a local server.
	BaseURL string
	// HTTPClient overrides the default transport when provided.
	HTTPClient *http.Client
}

// Client enumerates projects and repositories through the Azure DevOps REST API.
type Client struct {
	logger              *zap.Logger
	httpClient          *http.Client
	baseURL             string
	personalAccessToken string
	excludedProjects    map[string]struct{}
}

// NewClient validates the configuration and constructs a catalog client.
func NewClient(logger *zap.Logger, configuration ClientConfiguration) (*Client, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if len(strings.TrimSpace(configuration.Organization)) == 0 {
		return nil, ErrOrganizationNotConfigured
	}
	if len(configuration.PersonalAccessToken) == 0 {
		return nil, ErrCredentialNotConfigured
	}

	baseURL := configuration.BaseURL
	if len(baseURL) == 0 {
		baseURL = fmt.Sprintf(organizationBaseURLTemplateConstant, configuration.Organization)
	}

	httpClient := configuration.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultRequestTimeoutConstant}
	}

	excludedProjects := make(map[string]struct{}, len(configuration.ExcludedProjects))
	for _, excludedProjectName := range configuration.ExcludedProjects {
		excludedProjects[excludedProjectName] = struct{}{}
	}

	return &Client{
		logger:              logger,
		httpClient:          httpClient,
		baseURL:             baseURL,
		personalAccessToken: configuration.PersonalAccessToken,
		excludedProjects:    excludedProjects,
	}, nil
}

// ListProjects enumerates the organization's projects minus exclusions.
// Exclusion matching is exact and case-sensitive. Transport failures are
// logged and yield an empty list.
func (client *Client) ListProjects(executionContext context.Context) ([]backup.Project, error) {
	endpoint := fmt.Sprintf(projectsEndpointTemplateConstant, client.baseURL, apiVersionConstant)

	var response struct {
		Value []struct {
			Name string `json:"name"`
		} `json:"value"`
	}

	if requestError := client.getJSON(executionContext, listProjectsOperationNameConstant, endpoint, &response); requestError != nil {
		client.logger.Error(
			projectEnumerationFailedMessageConstant,
			zap.String(logFieldOperationConstant, string(listProjectsOperationNameConstant)),
			zap.Error(requestError),
		)
		return []backup.Project{}, nil
	}

	projects := make([]backup.Project, 0, len(response.Value))
	for _, projectEntry := range response.Value {
		if _, excluded := client.excludedProjects[projectEntry.Name]; excluded {
			continue
		}
		projects = append(projects, backup.Project{Name: projectEntry.Name})
	}

	client.logger.Info(projectsFilteredMessageConstant, zap.Int(logFieldProjectCountConstant, len(projects)))

	return projects, nil
}

// ListRepositories enumerates the git repositories of one project. Transport
// failures are logged and yield an empty list.
func (client *Client) ListRepositories(executionContext context.Context, projectName string) ([]backup.Repository, error) {
	endpoint := fmt.Sprintf(repositoriesEndpointTemplate, client.baseURL, url.PathEscape(projectName), apiVersionConstant)

	var response struct {
		Value []struct {
			Name      string `json:"name"`
			RemoteURL string `json:"remoteUrl"`
		} `json:"value"`
	}

	if requestError := client.getJSON(executionContext, listRepositoriesOperationNameConstant, endpoint, &response); requestError != nil {
		client.logger.Error(
			repositoryListingFailedMessageConstant,
			zap.String(logFieldProjectConstant, projectName),
			zap.Error(requestError),
		)
		return []backup.Repository{}, nil
	}

	repositories := make([]backup.Repository, 0, len(response.Value))
	for _, repositoryEntry := range response.Value {
		repositories = append(repositories, backup.Repository{
			Name:        repositoryEntry.Name,
			RemoteURL:   repositoryEntry.RemoteURL,
			ProjectName: projectName,
		})
	}

	return repositories, nil
}

func (client *Client) getJSON(executionContext context.Context, operation OperationName, endpoint string, target any) error {
	request, requestCreationError := http.NewRequestWithContext(executionContext, http.MethodGet, endpoint, nil)
	if requestCreationError != nil {
		return OperationError{Operation: operation, Cause: requestCreationError}
	}
	request.SetBasicAuth(basicAuthUsernameConstant, client.personalAccessToken)

	response, requestError := client.httpClient.Do(request)
	if requestError != nil {
		return OperationError{Operation: operation, Cause: requestError}
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		io.Copy(io.Discard, response.Body)
		return OperationError{Operation: operation, Cause: fmt.Errorf(unexpectedStatusErrorTemplateConstant, response.StatusCode)}
	}

	if decodingError := json.NewDecoder(response.Body).Decode(target); decodingError != nil {
		return ResponseDecodingError{Operation: operation, Cause: decodingError}
	}

	return nil
}
