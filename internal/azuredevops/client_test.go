package azuredevops_test

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/temirov/gitbackup/internal/azuredevops"
)

const (
	clientTestOrganizationConstant     = "Contoso"
	clientTestAccessTokenConstant      = "secret-token"
	clientTestFirstProjectConstant     = "A"
	clientTestSecondProjectConstant    = "B"
	clientTestRepositoryConstant       = "r1"
	clientTestRemoteURLConstant        = "https://dev.azure.com/Contoso/A/_git/r1"
	projectsResponseBodyConstant       = `{"value":[{"name":"A"},{"name":"B"}]}`
	repositoriesResponseBodyConstant   = `{"value":[{"name":"r1","remoteUrl":"https://dev.azure.com/Contoso/A/_git/r1"}]}`
	malformedResponseBodyConstant      = `{"value":`
	authorizationHeaderNameConstant    = "Authorization"
	basicAuthorizationPrefixConstant   = "Basic "
	repositoriesPathTemplateConstant   = "/A/_apis/git/repositories"
	unreachableServerAddressConstant   = "http://127.0.0.1:1"
)

func newProjectsServer(testInstance *testing.T, responseBody string, statusCode int) *httptest.Server {
	testInstance.Helper()

	return httptest.NewServer(http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
		responseWriter.WriteHeader(statusCode)
		responseWriter.Write([]byte(responseBody))
	}))
}

func newTestClient(testInstance *testing.T, baseURL string, excludedProjects []string) *azuredevops.Client {
	testInstance.Helper()

	client, creationError := azuredevops.NewClient(zaptest.NewLogger(testInstance), azuredevops.ClientConfiguration{
		Organization:        clientTestOrganizationConstant,
		PersonalAccessToken: clientTestAccessTokenConstant,
		ExcludedProjects:    excludedProjects,
		BaseURL:             baseURL,
	})
	require.NoError(testInstance, creationError)
	return client
}

func TestNewClientValidatesConfiguration(testInstance *testing.T) {
	testCases := []struct {
		name          string
		logger        *zap.Logger
		configuration azuredevops.ClientConfiguration
		expectedError error
	}{
		{
			name:   "missing_logger",
			logger: nil,
			configuration: azuredevops.ClientConfiguration{
				Organization:        clientTestOrganizationConstant,
				PersonalAccessToken: clientTestAccessTokenConstant,
			},
			expectedError: azuredevops.ErrLoggerNotConfigured,
		},
		{
			name:   "missing_organization",
			logger: zap.NewNop(),
			configuration: azuredevops.ClientConfiguration{
				Organization:        "   ",
				PersonalAccessToken: clientTestAccessTokenConstant,
			},
			expectedError: azuredevops.ErrOrganizationNotConfigured,
		},
		{
			name:   "missing_credential",
			logger: zap.NewNop(),
			configuration: azuredevops.ClientConfiguration{
				Organization: clientTestOrganizationConstant,
			},
			expectedError: azuredevops.ErrCredentialNotConfigured,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			client, creationError := azuredevops.NewClient(testCase.logger, testCase.configuration)
			require.Nil(testInstance, client)
			require.ErrorIs(testInstance, creationError, testCase.expectedError)
		})
	}
}

func TestListProjectsUsesBasicAuthCredential(testInstance *testing.T) {
	var observedAuthorization string
	server := httptest.NewServer(http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
		observedAuthorization = request.Header.Get(authorizationHeaderNameConstant)
		responseWriter.Write([]byte(projectsResponseBodyConstant))
	}))
	defer server.Close()

	client := newTestClient(testInstance, server.URL, nil)
	_, listError := client.ListProjects(context.Background())
	require.NoError(testInstance, listError)

	expectedCredential := basicAuthorizationPrefixConstant +
		base64.StdEncoding.EncodeToString([]byte(":"+clientTestAccessTokenConstant))
	require.Equal(testInstance, expectedCredential, observedAuthorization)
}

func TestListProjectsAppliesExactCaseSensitiveExclusions(testInstance *testing.T) {
	testCases := []struct {
		name             string
		excludedProjects []string
		expectedProjects []string
	}{
		{
			name:             "no_exclusions",
			excludedProjects: nil,
			expectedProjects: []string{clientTestFirstProjectConstant, clientTestSecondProjectConstant},
		},
		{
			name:             "exact_match_excluded",
			excludedProjects: []string{clientTestSecondProjectConstant},
			expectedProjects: []string{clientTestFirstProjectConstant},
		},
		{
			name:             "case_mismatch_not_excluded",
			excludedProjects: []string{"b"},
			expectedProjects: []string{clientTestFirstProjectConstant, clientTestSecondProjectConstant},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			server := newProjectsServer(testInstance, projectsResponseBodyConstant, http.StatusOK)
			defer server.Close()

			client := newTestClient(testInstance, server.URL, testCase.excludedProjects)
			projects, listError := client.ListProjects(context.Background())
			require.NoError(testInstance, listError)

			projectNames := make([]string, 0, len(projects))
			for _, project := range projects {
				projectNames = append(projectNames, project.Name)
			}
			require.Equal(testInstance, testCase.expectedProjects, projectNames)
		})
	}
}

func TestListProjectsTransportFailureYieldsEmptyList(testInstance *testing.T) {
	client := newTestClient(testInstance, unreachableServerAddressConstant, nil)

	projects, listError := client.ListProjects(context.Background())
	require.NoError(testInstance, listError)
	require.Empty(testInstance, projects)
}

func TestListProjectsUnexpectedStatusYieldsEmptyList(testInstance *testing.T) {
	server := newProjectsServer(testInstance, "", http.StatusUnauthorized)
	defer server.Close()

	client := newTestClient(testInstance, server.URL, nil)

	projects, listError := client.ListProjects(context.Background())
	require.NoError(testInstance, listError)
	require.Empty(testInstance, projects)
}

func TestListProjectsMalformedResponseYieldsEmptyList(testInstance *testing.T) {
	server := newProjectsServer(testInstance, malformedResponseBodyConstant, http.StatusOK)
	defer server.Close()

	client := newTestClient(testInstance, server.URL, nil)

	projects, listError := client.ListProjects(context.Background())
	require.NoError(testInstance, listError)
	require.Empty(testInstance, projects)
}

func TestListRepositoriesBindsProjectName(testInstance *testing.T) {
	var observedPath string
	server := httptest.NewServer(http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
		observedPath = request.URL.Path
		responseWriter.Write([]byte(repositoriesResponseBodyConstant))
	}))
	defer server.Close()

	client := newTestClient(testInstance, server.URL, nil)
	repositories, listError := client.ListRepositories(context.Background(), clientTestFirstProjectConstant)
	require.NoError(testInstance, listError)

	require.Equal(testInstance, repositoriesPathTemplateConstant, observedPath)
	require.Len(testInstance, repositories, 1)
	require.Equal(testInstance, clientTestRepositoryConstant, repositories[0].Name)
	require.Equal(testInstance, clientTestRemoteURLConstant, repositories[0].RemoteURL)
	require.Equal(testInstance, clientTestFirstProjectConstant, repositories[0].ProjectName)
}

func TestListRepositoriesTransportFailureYieldsEmptyList(testInstance *testing.T) {
	client := newTestClient(testInstance, unreachableServerAddressConstant, nil)

	repositories, listError := client.ListRepositories(context.Background(), clientTestFirstProjectConstant)
	require.NoError(testInstance, listError)
	require.Empty(testInstance, repositories)
}
