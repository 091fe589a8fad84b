// Package testing provides test doubles and helpers shared across packages.
//
//   - MockCloudClient, MockCommandRunner: testify mocks of the provisioning collaborators
//   - RecordingTimer: a backoff.Timer that fires immediately and records each wait
//   - Journal: an ordered log of calls, shared between fakes to assert sequencing
//   - GenerateKeyPair: throwaway SSH keys for runner tests
//   - SSHServer: an in-process SSH server answering exec requests
//
// Usage:
//
//	journal := &testing.Journal{}
//	timer := testing.NewRecordingTimer(journal)
//	cloud := &testing.MockCloudClient{Journal: journal}
//	cloud.On("Shutdown", mock.Anything, mock.Anything).Return(nil)
package testing
