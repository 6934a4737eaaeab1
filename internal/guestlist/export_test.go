package guestlist

var NextStatus = nextStatus
