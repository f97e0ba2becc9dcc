// Package timeline reconstructs where each ref has pointed over time from
// its reflog, producing best-effort branch membership for every commit.
//
// # The Problem
//
// A repository only stores where each ref points now. Which branch a commit
// was made on is not recorded anywhere; the closest substitute is the
// reflog, a time-ordered record of the commits a ref has pointed to. That
// record is partial: reflogs get truncated, fast-forwards jump over commits
// without logging the intermediate steps, and refs created before reflogs
// were enabled have no history at all.
//
// # Confirmed vs Unconfirmed
//
// Rather than forcing a yes/no membership decision, this package keeps the
// ambiguity as data. A commit is confirmed for a ref when a reflog entry
// (or the ref's current tip) explicitly asserts it. Every other commit in
// the ref's reachable ancestry is unconfirmed: probably on the branch, but
// with nothing in the record to prove it. A fast-forward deliberately does
// not retroactively paint the commits it skipped - the rail assigner
// renders those spans grey instead.
//
// # Concurrency
//
// Each ref's timeline depends only on its own reflog and the shared
// read-only commit graph, so [Reconstruct] fans out across refs with a
// bounded number of goroutines and merges the results in input order before
// returning.
package timeline
