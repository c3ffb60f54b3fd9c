package tcmb

// Version is the library version sent in the default User-Agent.
const Version = "0.4.0"
