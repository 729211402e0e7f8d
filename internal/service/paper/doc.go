// Package paper orchestrates the exam-paper pipeline: request validation,
// remote generation with model fallback, answer-key splitting, the offline
// template generator and document rendering.
//
// Each call runs independently and records the states it passed through:
//
//	validating -> rejected | selecting_model
//	selecting_model -> generating | fallback_generating
//	generating -> splitting | fallback_generating
//	splitting, fallback_generating -> rendering
//	rendering -> delivered | render_failed
//
// Render-only requests go validating -> rendering directly.
package paper
