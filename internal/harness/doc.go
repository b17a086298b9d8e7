// Package harness runs build scenarios end to end and checks their traces.
//
// A scenario scripts the candidates a generator would produce, supplies
// the datasets they run against, and asserts on the resulting observer
// trace and build journal. Candidates really execute through the local
// executor; only generation is scripted.
//
// # Scenario Format
//
//	name: emails_retry
//	description: "First candidate raises, second is accepted"
//	build_id: test-build-emails
//	interpreter: [sh]
//	suffix: .sh
//	max_iterations: 3
//	iteration_timeout: 5s
//	datasets:
//	  - name: emails_in
//	    format: csv
//	    fields: { id: int, email: string }
//	    content: |
//	      id,email
//	      1,a@example.com
//	  - name: emails_out
//	    format: csv
//	inputs: [emails_in]
//	output: emails_out
//	checks: [output_exists, output_schema]
//	candidates:
//	  - "echo 'ValueError: bad' >&2; exit 1"
//	  - "cp \"$AIDEN_DATASET_EMAILS_IN_PATH\" \"$AIDEN_DATASET_EMAILS_OUT_PATH\""
//	expect:
//	  state: ready
//	  iterations: 2
//	assertions:
//	  - type: trace_contains
//	    event: iteration_end
//	    iteration: 0
//	    condition: raised
//	  - type: final_state
//	    table: builds
//	    where: { id: test-build-emails }
//	    expect: { state: ready }
//
// # Assertion Types
//
//   - trace_contains: an event matching every given field appears in the trace
//   - trace_order: the events appear in the given order
//   - trace_count: an event appears exactly N times
//   - final_state: a journal row matches the expected values
//
// # Deterministic Testing
//
// Every run uses a fixed build ID, a manual clock and an in-memory journal.
// Traces omit durations, and the scratch working directory is replaced by
// $WORKDIR, so traces are identical across runs and compare against golden
// files.
package harness
