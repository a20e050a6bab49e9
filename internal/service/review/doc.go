// Package review routes processed emails into the review queue based on
// extraction confidence and drives the entries through their lifecycle:
// immediate auto-approval above the top threshold, delayed auto-approval in
// the medium band, manual-only review below that, and a very-low-confidence
// flag at the bottom. Approval activates the publisher and its pending
// offerings; every decision lands in the automation log.
package review
