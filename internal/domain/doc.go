// Package domain defines the core business types for the Mailchimp
// insights dashboard.
//
// Types in this package are pure value objects with no database dependencies
// and no HTTP concerns. They are the shared language between the Mailchimp
// client, the campaign cache, and the analytics engine.
package domain
