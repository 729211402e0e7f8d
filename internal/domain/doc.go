// Package domain contains the exam-paper request and document types shared by
// the generation pipeline, the renderer and the HTTP layer. It has no
// dependencies on infrastructure or delivery mechanisms.
package domain
