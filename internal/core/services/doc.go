// Package services holds the policy assistant's use cases: ingesting
// handbooks into an index, retrieving passages, synthesising cited answers
// and recording feedback. Every service depends on driven ports only, so
// adapters can be swapped without touching the flow.
package services
