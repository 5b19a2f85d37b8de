package handler

// ClientIPForTest exposes clientIP to the external test package.
var ClientIPForTest = clientIP
