// Package harness runs case suites against the template compiler.
//
// A suite is a YAML file listing statements in s-expression text, the
// arguments to fill them with, and what should come out:
//
//	name: people
//	description: "Create, fill and query a people table"
//	types:
//	  integer: BIGINT
//	execute: true
//	cases:
//	  - name: create table
//	    sql: "[:create-table $i1 $S2]"
//	    args: ["people", "[(id integer :primary-key) (name object)]"]
//	    expect: "CREATE TABLE people (id BIGINT PRIMARY KEY, name TEXT)"
//	  - name: bad identifier
//	    sql: "[:select * :from $i1]"
//	    args: ['"people"']
//	    error: INVALID_IDENTIFIER
//
// Each case is compiled under the suite's type map and filled with its
// arguments. The filled SQL is compared with expect, or the error kind
// with error. When execute is set, cases run in order on one in-memory
// SQLite store, so later cases see the tables earlier cases created, and
// rows checks the number of rows returned or affected.
//
// # Deterministic Reports
//
// Every run is tagged with a run ID from a RunIDGenerator. Production runs
// use random UUIDs; tests inject testutil.FixedRunID so that reports are
// byte-identical and can be compared against golden files.
//
// # Usage
//
//	suite, err := harness.LoadSuite("testdata/suites/people.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := harness.New().Run(ctx, suite)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, c := range result.Cases {
//	        log.Println(c.Name, c.Failures)
//	    }
//	}
package harness
