package stepwise

// Version is the release of the stepwise module.
const Version = "0.4.0"
