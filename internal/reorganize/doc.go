// Package reorganize rewrites the output tree after the bundler has run.
//
// In flatten mode every page's root document moves from
// <out>/<pageDir>/<page>/<rootPage> to <out>/<page>.html. In preserve mode
// the whole page directory moves from <out>/<pageDir>/<page> to <out>/<page>.
// The purge directory is removed afterwards.
//
// Pages are handled independently: one failing page never prevents the
// others from being moved. A page whose source is already gone but whose
// destination exists is reported as skipped, so running twice is safe.
package reorganize
