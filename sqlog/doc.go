// Package sqlog wraps sqlx with statement logging through zerolog.
//
// Every query run through the wrapper emits one structured log event
// carrying the SQL operation, the (sanitized) statement, the argument
// count, the row count when it is knowable, and the elapsed time.
// Events log at trace level; failed and slow statements log at warn.
//
// # Request Identity
//
// When the context carries a request logger (see package requestlog),
// statements log through it, so every SQL event lands in the same
// stream as the request's lifecycle events with the same request_id.
// Without one, events fall back to the logger given via WithLogger.
//
// # Quick Start
//
//	db, err := sqlog.Connect(ctx, "postgres", dsn,
//	    sqlog.WithLogger(log),
//	    sqlog.WithSystem("postgresql"),
//	    sqlog.WithDatabase("orders"),
//	    sqlog.WithSlowThreshold(200*time.Millisecond),
//	)
//
//	var order Order
//	err = db.GetContext(ctx, &order, "SELECT * FROM orders WHERE id = $1", id)
//
// # Sensitive Statements
//
// Literal values in queries can leak into logs. Use WithSanitizer with
// DefaultSanitizer to replace string, numeric, and hex literals with
// placeholders, or WithDisableQuery to drop the statement text entirely
// (the operation verb is still logged).
package sqlog
