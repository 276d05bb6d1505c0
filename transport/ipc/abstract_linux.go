package ipc

const abstractSupported = true
