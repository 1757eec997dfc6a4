// Package mocks provides test doubles for ports interfaces.
//
// These mocks are simple, thread-safe, in-memory implementations suitable
// for unit testing. Each mock provides:
//
//   - Default behavior that mirrors the real repository semantics
//   - Callback functions (xxxFn) for customizing behavior per test
//   - Call counters for asserting which collaborators were touched
//
// # Usage Example
//
//	func TestOrchestrator(t *testing.T) {
//		jobs := mocks.NewJobRepository(job1, job2)
//		contacts := mocks.NewContactRepository(contactA)
//
//		orch := digest.New(cfg, jobs, contacts, mocks.NewDigestLog(), channels, &logger)
//		orch.Run(ctx, digest.RunOptions{})
//		// ... assert on jobs.NotifiedKeys()
//	}
//
// # Available Mocks
//
//   - JobRepository: implements ports.JobRepository
//   - ContactRepository: implements ports.ContactRepository
//   - DigestLog: implements ports.DigestLog
//   - ContactLinker: implements ports.ContactLinker
//   - MessageSender: implements ports.MessageSender
package mocks
