package streamcore

const abstractEnabled = true
