package common

// RequestIDHeaderName is echoed back on every response.
const RequestIDHeaderName = "X-Request-ID"
