// Package azuredevops adapts the Azure DevOps REST API to the backup catalog
// contract. Transport failures are logged and surface as empty collections so
// run-level decisions stay with the orchestrator.
package azuredevops
