// Package reconcile upserts the entity graph extracted from a qualified
// email — website, publisher-website link, offering, offering-website
// relationship, pricing rules — against the store without creating
// duplicates. Behavior branches on whether the publisher pre-existed the
// email: new shadow publishers get inactive first-write-wins records,
// existing active publishers get confidence-gated in-place updates.
//
// Every create is preceded by an existence check on the natural key, so
// reprocessing the identical email is a no-op. A failure in one sub-step is
// logged and does not abort the siblings.
package reconcile
