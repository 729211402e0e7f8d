// Package mocks provides call-tracking test doubles for the generation
// interfaces.
//
// MockBackend implements generation.Backend and hands out scripted
// MockModel handles; every handle construction and model call is recorded so
// tests can assert which candidates were tried, in which order and how often:
//
//	model := mocks.NewMockModel("gemini-2.0-flash",
//	    mocks.MockResult{Err: generation.ErrRateLimited},
//	    mocks.MockResult{Text: "Q1...\nANSWER KEY:\n1..."})
//	backend := mocks.NewMockBackend("gemini", model)
package mocks
