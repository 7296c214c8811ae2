package controllers

import "errors"

var ErrNoPermission = errors.New("you don't have permission to access this resource")
