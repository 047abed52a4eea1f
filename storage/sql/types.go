package sql

// Type should match the package name
const Type = "sql"
